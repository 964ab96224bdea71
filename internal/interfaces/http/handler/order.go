package handler

import (
	orderingapp "github.com/clinicore/backend/internal/application/ordering"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles service-order endpoints: doctor order entry, the
// department worklists and the result lifecycle.
type OrderHandler struct {
	BaseHandler
	orderService *orderingapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderingapp.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// Create enters a lab, radiology or pharmacy order directly from the
// doctor's desk.
func (h *OrderHandler) Create(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}
	doctorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Missing user context")
		return
	}

	var req orderingapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), clinicID, doctorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID retrieves a single order
func (h *OrderHandler) GetByID(c *gin.Context) {
	clinicID, orderID, ok := h.orderScope(c)
	if !ok {
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), clinicID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Worklist lists paid orders for a department. The department comes from
// the route (lab/radiology); unpaid orders never appear here.
func (h *OrderHandler) Worklist(orderType ordering.OrderType) gin.HandlerFunc {
	return func(c *gin.Context) {
		clinicID, err := getClinicID(c)
		if err != nil {
			h.Unauthorized(c, "Missing clinic context")
			return
		}

		var filter orderingapp.OrderListFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			h.BadRequest(c, "Invalid query parameters: "+err.Error())
			return
		}

		orders, err := h.orderService.ListForDepartment(c.Request.Context(), clinicID, orderType, filter)
		if err != nil {
			h.HandleError(c, err)
			return
		}

		h.Success(c, orders)
	}
}

// CollectSample records that the specimen was taken
func (h *OrderHandler) CollectSample(c *gin.Context) {
	clinicID, orderID, ok := h.orderScope(c)
	if !ok {
		return
	}

	resp, err := h.orderService.CollectSample(c.Request.Context(), clinicID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UploadReport attaches the findings to an order
func (h *OrderHandler) UploadReport(c *gin.Context) {
	clinicID, orderID, ok := h.orderScope(c)
	if !ok {
		return
	}

	var req orderingapp.UploadReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.orderService.UploadReport(c.Request.Context(), clinicID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Publish releases an uploaded result to the patient
func (h *OrderHandler) Publish(c *gin.Context) {
	clinicID, orderID, ok := h.orderScope(c)
	if !ok {
		return
	}

	resp, err := h.orderService.Publish(c.Request.Context(), clinicID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Reject declines a pending order
func (h *OrderHandler) Reject(c *gin.Context) {
	clinicID, orderID, ok := h.orderScope(c)
	if !ok {
		return
	}

	resp, err := h.orderService.Reject(c.Request.Context(), clinicID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// PatientResults lists published lab/radiology results for a patient
func (h *OrderHandler) PatientResults(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid patient ID format")
		return
	}

	orders, err := h.orderService.ListPublishedForPatient(c.Request.Context(), clinicID, patientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, orders)
}

// MyOrders lists the acting doctor's orders
func (h *OrderHandler) MyOrders(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}
	doctorID, err := getActorID(c)
	if err != nil {
		h.Unauthorized(c, "Missing user context")
		return
	}

	var filter orderingapp.OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	orders, err := h.orderService.ListForDoctor(c.Request.Context(), clinicID, doctorID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, orders)
}

func (h *OrderHandler) orderScope(c *gin.Context) (clinicID, orderID uuid.UUID, ok bool) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return uuid.Nil, uuid.Nil, false
	}
	orderID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, orderID, true
}

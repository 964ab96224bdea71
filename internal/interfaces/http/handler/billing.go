package handler

import (
	billingapp "github.com/clinicore/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BillingHandler handles invoices, settlement and the accounting dashboard
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// CreateInvoice raises a manual invoice against a patient
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.billingService.CreateInvoice(c.Request.Context(), clinicID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByNumber retrieves an invoice by its human-readable number
func (h *BillingHandler) GetByNumber(c *gin.Context) {
	clinicID, number, ok := h.invoiceScope(c)
	if !ok {
		return
	}

	resp, err := h.billingService.GetByNumber(c.Request.Context(), clinicID, number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List lists the clinic's invoices
func (h *BillingHandler) List(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	invoices, err := h.billingService.List(c.Request.Context(), clinicID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}

// ListByPatient lists a patient's invoices
func (h *BillingHandler) ListByPatient(c *gin.Context) {
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

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	invoices, err := h.billingService.ListByPatient(c.Request.Context(), clinicID, patientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}

// ListDirectSales lists counter-sale invoices for the POS screen
func (h *BillingHandler) ListDirectSales(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	invoices, err := h.billingService.ListDirectSales(c.Request.Context(), clinicID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}

// Settle marks an invoice paid and releases everything the payment was
// blocking: the visit's queue state and the patient's pending orders.
func (h *BillingHandler) Settle(c *gin.Context) {
	clinicID, number, ok := h.invoiceScope(c)
	if !ok {
		return
	}

	resp, err := h.billingService.Settle(c.Request.Context(), clinicID, number)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateStatus moves an invoice between statuses
func (h *BillingHandler) UpdateStatus(c *gin.Context) {
	clinicID, number, ok := h.invoiceScope(c)
	if !ok {
		return
	}

	var req billingapp.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.billingService.UpdateStatus(c.Request.Context(), clinicID, number, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Dashboard returns the accounting aggregates
func (h *BillingHandler) Dashboard(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	resp, err := h.billingService.Dashboard(c.Request.Context(), clinicID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

func (h *BillingHandler) invoiceScope(c *gin.Context) (clinicID uuid.UUID, number string, ok bool) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return uuid.Nil, "", false
	}
	number = c.Param("number")
	if number == "" {
		h.BadRequest(c, "Invoice number is required")
		return uuid.Nil, "", false
	}
	return clinicID, number, true
}

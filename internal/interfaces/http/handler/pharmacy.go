package handler

import (
	pharmacyapp "github.com/clinicore/backend/internal/application/pharmacy"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PharmacyHandler handles dispensation and the stock register
type PharmacyHandler struct {
	BaseHandler
	fulfillmentService *pharmacyapp.FulfillmentService
	inventoryService   *pharmacyapp.InventoryService
}

// NewPharmacyHandler creates a new PharmacyHandler
func NewPharmacyHandler(fulfillmentService *pharmacyapp.FulfillmentService, inventoryService *pharmacyapp.InventoryService) *PharmacyHandler {
	return &PharmacyHandler{
		fulfillmentService: fulfillmentService,
		inventoryService:   inventoryService,
	}
}

// FulfillOrder dispenses a pharmacy order: stock deduction, invoice and
// order completion happen in one transaction.
func (h *PharmacyHandler) FulfillOrder(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req pharmacyapp.FulfillOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.fulfillmentService.ProcessOrder(c.Request.Context(), clinicID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DirectSale sells over the counter without a doctor's order
func (h *PharmacyHandler) DirectSale(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var req pharmacyapp.DirectSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.fulfillmentService.DirectSale(c.Request.Context(), clinicID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// CreateStockItem adds an item to the stock register
func (h *PharmacyHandler) CreateStockItem(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var req pharmacyapp.CreateStockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.inventoryService.Create(c.Request.Context(), clinicID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetStockItem retrieves a single stock item
func (h *PharmacyHandler) GetStockItem(c *gin.Context) {
	clinicID, itemID, ok := h.itemScope(c)
	if !ok {
		return
	}

	resp, err := h.inventoryService.GetByID(c.Request.Context(), clinicID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateStockItem replaces the mutable fields of a stock item
func (h *PharmacyHandler) UpdateStockItem(c *gin.Context) {
	clinicID, itemID, ok := h.itemScope(c)
	if !ok {
		return
	}

	var req pharmacyapp.UpdateStockItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.inventoryService.Update(c.Request.Context(), clinicID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RestockItem adds quantity to an item
func (h *PharmacyHandler) RestockItem(c *gin.Context) {
	clinicID, itemID, ok := h.itemScope(c)
	if !ok {
		return
	}

	var req pharmacyapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.inventoryService.Restock(c.Request.Context(), clinicID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// DeleteStockItem removes an item from the register
func (h *PharmacyHandler) DeleteStockItem(c *gin.Context) {
	clinicID, itemID, ok := h.itemScope(c)
	if !ok {
		return
	}

	if err := h.inventoryService.Delete(c.Request.Context(), clinicID, itemID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListStockItems lists the clinic's stock register
func (h *PharmacyHandler) ListStockItems(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var filter pharmacyapp.StockListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	items, err := h.inventoryService.List(c.Request.Context(), clinicID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// ListLowStock lists items at or below the reorder threshold
func (h *PharmacyHandler) ListLowStock(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	items, err := h.inventoryService.ListLowStock(c.Request.Context(), clinicID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

func (h *PharmacyHandler) itemScope(c *gin.Context) (clinicID, itemID uuid.UUID, ok bool) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, itemID, true
}

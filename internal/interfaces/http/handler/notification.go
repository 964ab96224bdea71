package handler

import (
	notificationapp "github.com/clinicore/backend/internal/application/notification"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NotificationHandler handles the department inboxes and badge counts
type NotificationHandler struct {
	BaseHandler
	notificationService *notificationapp.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *notificationapp.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// Notify delivers a message to a department inbox
func (h *NotificationHandler) Notify(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var req notificationapp.NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.notificationService.Notify(c.Request.Context(), clinicID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List lists a department inbox
func (h *NotificationHandler) List(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	var filter notificationapp.NotificationListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	notices, err := h.notificationService.List(c.Request.Context(), clinicID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, notices)
}

// UnreadCount returns the cached badge count for a department
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	department := c.Query("department")
	if department == "" {
		h.BadRequest(c, "Department is required")
		return
	}

	count, err := h.notificationService.UnreadCount(c.Request.Context(), clinicID, department)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"count": count})
}

// UpdateStatus marks a notification read or completed. Completing a
// notification that links to a pharmacy order also closes the order;
// that side effect is best-effort and never fails the update.
func (h *NotificationHandler) UpdateStatus(c *gin.Context) {
	clinicID, err := getClinicID(c)
	if err != nil {
		h.Unauthorized(c, "Missing clinic context")
		return
	}

	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid notification ID format")
		return
	}

	var req notificationapp.UpdateNotificationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request format: "+err.Error())
		return
	}

	resp, err := h.notificationService.UpdateStatus(c.Request.Context(), clinicID, notificationID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

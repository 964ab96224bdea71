package notification

import (
	"time"

	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/google/uuid"
)

// NotifyRequest delivers a message to a department inbox
type NotifyRequest struct {
	Department string     `json:"department" binding:"required,min=1,max=100"`
	PatientID  uuid.UUID  `json:"patient_id"`
	OrderID    *uuid.UUID `json:"order_id"`
	Type       string     `json:"type"`
	Action     string     `json:"action"`
	Text       string     `json:"text" binding:"required,min=1"`
}

// UpdateNotificationStatusRequest moves a notification between statuses
type UpdateNotificationStatusRequest struct {
	Status notification.Status `json:"status" binding:"required"`
}

// NotificationListFilter filters inbox listings
type NotificationListFilter struct {
	Department string `form:"department"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

// NotificationResponse is the API representation of a notification
type NotificationResponse struct {
	ID         uuid.UUID            `json:"id"`
	ClinicID   uuid.UUID            `json:"clinic_id"`
	Department string               `json:"department"`
	Message    notification.Message `json:"message"`
	Status     notification.Status  `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ToNotificationResponse converts a domain notification
func ToNotificationResponse(notice *notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:         notice.ID,
		ClinicID:   notice.ClinicID,
		Department: notice.Department,
		Message:    notice.Message,
		Status:     notice.Status,
		CreatedAt:  notice.CreatedAt,
		UpdatedAt:  notice.UpdatedAt,
	}
}

// ToNotificationResponses converts a slice of domain notifications
func ToNotificationResponses(notices []notification.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notices))
	for idx := range notices {
		responses = append(responses, ToNotificationResponse(&notices[idx]))
	}
	return responses
}

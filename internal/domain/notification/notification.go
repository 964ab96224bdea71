package notification

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status tracks whether a department has handled a notification
type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
	// StatusCompleted is terminal: the department finished the work the
	// notification announced.
	StatusCompleted Status = "completed"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	return s == StatusUnread || s == StatusRead || s == StatusCompleted
}

// Message is the typed payload of a notification. Earlier systems stored
// this as ad hoc key-value text; here it is decoded exactly once at the
// persistence boundary.
type Message struct {
	PatientID uuid.UUID  `json:"patientId"`
	OrderID   *uuid.UUID `json:"orderId,omitempty"`
	Type      string     `json:"type,omitempty"`
	Action    string     `json:"action,omitempty"`
	Text      string     `json:"text,omitempty"`
}

// Value implements driver.Valuer, serializing the message to a text column
func (m Message) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (m *Message) Scan(value interface{}) error {
	if value == nil {
		*m = Message{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return errors.New("unsupported type for Message")
	}
	if len(raw) == 0 {
		*m = Message{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Notification is a department-scoped notice created when an order is
// placed or changes state. Unread notifications drive dashboard badges.
type Notification struct {
	shared.ClinicAggregateRoot
	Department string  `gorm:"type:varchar(32);not null;index"`
	Message    Message `gorm:"type:text"`
	Status     Status  `gorm:"type:varchar(16);not null;default:'unread';index"`
}

// TableName returns the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// NewNotification creates an unread notification for a department
func NewNotification(clinicID uuid.UUID, department string, message Message) (*Notification, error) {
	if department == "" {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "Department cannot be empty")
	}
	return &Notification{
		ClinicAggregateRoot: shared.NewClinicAggregateRoot(clinicID),
		Department:          department,
		Message:             message,
		Status:              StatusUnread,
	}, nil
}

// SetStatus updates the handling status
func (n *Notification) SetStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown notification status: "+string(status))
	}
	n.Status = status
	n.UpdatedAt = time.Now()
	n.IncrementVersion()
	return nil
}

// NotificationRepository provides persistence for notifications
type NotificationRepository interface {
	FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*Notification, error)
	FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]Notification, error)
	CountUnread(ctx context.Context, clinicID uuid.UUID, department string) (int64, error)
	Save(ctx context.Context, notification *Notification) error
}

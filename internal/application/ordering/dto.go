package ordering

import (
	"time"

	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a direct doctor order entry
type CreateOrderRequest struct {
	PatientID uuid.UUID              `json:"patient_id" binding:"required"`
	Type      string                 `json:"type" binding:"required"`
	TestName  string                 `json:"test_name"`
	Items     []PrescriptionLineInput `json:"items"`
	Priority  string                 `json:"priority"`
	Notes     string                 `json:"notes"`
}

// PrescriptionLineInput is one prescribed medicine in an order request
type PrescriptionLineInput struct {
	InventoryID  *uuid.UUID      `json:"inventory_id"`
	MedicineName string          `json:"medicine_name" binding:"required,min=1,max=200"`
	Quantity     int64           `json:"quantity" binding:"required,min=1"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// UploadReportRequest carries the findings for a lab/radiology order
type UploadReportRequest struct {
	Findings string `json:"findings" binding:"required"`
}

// OrderListFilter filters department and doctor order listings
type OrderListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// OrderResponse is the API representation of a service order
type OrderResponse struct {
	ID            uuid.UUID               `json:"id"`
	ClinicID      uuid.UUID               `json:"clinic_id"`
	PatientID     uuid.UUID               `json:"patient_id"`
	DoctorID      uuid.UUID               `json:"doctor_id"`
	Type          ordering.OrderType      `json:"type"`
	TestName      string                  `json:"test_name"`
	TestStatus    ordering.TestStatus     `json:"test_status"`
	PaymentStatus ordering.PaymentStatus  `json:"payment_status"`
	Result        ordering.ResultDocument `json:"result"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// ToOrderResponse converts a domain order to its API representation
func ToOrderResponse(order *ordering.ServiceOrder) OrderResponse {
	return OrderResponse{
		ID:            order.ID,
		ClinicID:      order.ClinicID,
		PatientID:     order.PatientID,
		DoctorID:      order.DoctorID,
		Type:          order.Type,
		TestName:      order.TestName,
		TestStatus:    order.TestStatus,
		PaymentStatus: order.PaymentStatus,
		Result:        order.Result,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of domain orders
func ToOrderResponses(orders []ordering.ServiceOrder) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for idx := range orders {
		responses = append(responses, ToOrderResponse(&orders[idx]))
	}
	return responses
}

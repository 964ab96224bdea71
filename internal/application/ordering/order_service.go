package ordering

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/patient"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderService owns the lifecycle of service orders: direct doctor order
// entry, the named fulfillment transitions driven by department staff, and
// the payment-gated listing paths.
type OrderService struct {
	orderRepo        ordering.ServiceOrderRepository
	patientRepo      patient.PatientRepository
	notificationRepo notification.NotificationRepository
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo ordering.ServiceOrderRepository,
	patientRepo patient.PatientRepository,
	notificationRepo notification.NotificationRepository,
) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		patientRepo:      patientRepo,
		notificationRepo: notificationRepo,
	}
}

// CreateOrder handles direct order entry by a doctor outside a
// consultation. The order starts payment-pending and the fulfilling
// department is notified.
func (s *OrderService) CreateOrder(ctx context.Context, clinicID, doctorID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	exists, err := s.patientRepo.ExistsForClinic(ctx, clinicID, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid patient selected")
	}

	orderType := normalizeOrderType(req.Type)
	testName := req.TestName

	result := ordering.ResultDocument{Priority: req.Priority, Notes: req.Notes}
	if orderType == ordering.OrderTypePharmacy && len(req.Items) > 0 {
		lines := make([]ordering.PrescriptionLine, 0, len(req.Items))
		names := make([]string, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, ordering.PrescriptionLine{
				InventoryID:  item.InventoryID,
				MedicineName: item.MedicineName,
				Quantity:     item.Quantity,
				UnitPrice:    item.UnitPrice,
			})
			names = append(names, fmt.Sprintf("%s x%d", item.MedicineName, item.Quantity))
		}
		result.Items = lines
		if testName == "" {
			testName = strings.Join(names, ", ")
		}
	}
	if testName == "" {
		testName = "Prescription"
	}

	order, err := ordering.NewServiceOrder(clinicID, req.PatientID, doctorID, orderType, testName)
	if err != nil {
		return nil, err
	}
	order.Result = result

	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}

	notice, err := notification.NewNotification(clinicID, orderType.Department(), notification.Message{
		PatientID: req.PatientID,
		OrderID:   &order.ID,
		Type:      string(orderType),
		Action:    "NEW_ORDER",
		Text:      fmt.Sprintf("New %s order: %s", strings.ToLower(string(orderType)), testName),
	})
	if err != nil {
		return nil, err
	}
	if err := s.notificationRepo.Save(ctx, notice); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order within a clinic
func (s *OrderService) GetByID(ctx context.Context, clinicID, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForClinic(ctx, clinicID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// CollectSample marks the specimen as collected
func (s *OrderService) CollectSample(ctx context.Context, clinicID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.applyTransition(ctx, clinicID, orderID, func(order *ordering.ServiceOrder) error {
		return order.CollectSample()
	})
}

// UploadReport attaches the findings to the order
func (s *OrderService) UploadReport(ctx context.Context, clinicID, orderID uuid.UUID, req UploadReportRequest) (*OrderResponse, error) {
	return s.applyTransition(ctx, clinicID, orderID, func(order *ordering.ServiceOrder) error {
		return order.UploadReport(req.Findings)
	})
}

// Publish releases the uploaded report to the patient read path
func (s *OrderService) Publish(ctx context.Context, clinicID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.applyTransition(ctx, clinicID, orderID, func(order *ordering.ServiceOrder) error {
		return order.Publish()
	})
}

// Reject terminally rejects a pending order
func (s *OrderService) Reject(ctx context.Context, clinicID, orderID uuid.UUID) (*OrderResponse, error) {
	return s.applyTransition(ctx, clinicID, orderID, func(order *ordering.ServiceOrder) error {
		return order.Reject()
	})
}

// applyTransition loads the order, applies the named transition and saves.
// A missing order and an order of another clinic are indistinguishable.
func (s *OrderService) applyTransition(ctx context.Context, clinicID, orderID uuid.UUID, fn func(*ordering.ServiceOrder) error) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByIDForClinic(ctx, clinicID, orderID)
	if err != nil {
		return nil, err
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListForDepartment lists orders visible to department staff. The payment
// gate is enforced by the repository query: unpaid orders are excluded no
// matter what their fulfillment status says.
func (s *OrderService) ListForDepartment(ctx context.Context, clinicID uuid.UUID, orderType ordering.OrderType, filter OrderListFilter) ([]OrderResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	orders, err := s.orderRepo.FindForDepartment(ctx, clinicID, orderType, ordering.TestStatus(filter.Status), domainFilter)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// ListPublishedForPatient lists published results on the patient read path
func (s *OrderService) ListPublishedForPatient(ctx context.Context, clinicID, patientID uuid.UUID) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindPublishedForPatient(ctx, clinicID, patientID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// ListForDoctor lists all orders placed by a doctor
func (s *OrderService) ListForDoctor(ctx context.Context, clinicID, doctorID uuid.UUID, filter OrderListFilter) ([]OrderResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	orders, err := s.orderRepo.FindByDoctor(ctx, clinicID, doctorID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// normalizeOrderType maps loose order type spellings onto the canonical
// enum, defaulting to LAB.
func normalizeOrderType(raw string) ordering.OrderType {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "rad"):
		return ordering.OrderTypeRadiology
	case strings.Contains(lowered, "pharm"), strings.Contains(lowered, "presc"):
		return ordering.OrderTypePharmacy
	default:
		return ordering.OrderTypeLab
	}
}

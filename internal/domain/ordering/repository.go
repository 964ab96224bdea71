package ordering

import (
	"context"

	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ServiceOrderRepository provides persistence for service orders
type ServiceOrderRepository interface {
	FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*ServiceOrder, error)
	// FindForDepartment lists paid orders of the given type; the payment
	// gate is applied here so unpaid orders never reach department staff.
	FindForDepartment(ctx context.Context, clinicID uuid.UUID, orderType OrderType, statusFilter TestStatus, filter shared.Filter) ([]ServiceOrder, error)
	// FindPublishedForPatient lists orders visible on the patient read path.
	FindPublishedForPatient(ctx context.Context, clinicID, patientID uuid.UUID) ([]ServiceOrder, error)
	FindByPatient(ctx context.Context, clinicID, patientID uuid.UUID, filter shared.Filter) ([]ServiceOrder, error)
	FindByDoctor(ctx context.Context, clinicID, doctorID uuid.UUID, filter shared.Filter) ([]ServiceOrder, error)
	// ReleasePendingPayments flips every payment-pending order for the
	// patient/doctor pair to Paid and returns how many were released.
	ReleasePendingPayments(ctx context.Context, clinicID, patientID, doctorID uuid.UUID) (int64, error)
	Save(ctx context.Context, order *ServiceOrder) error
}

package persistence

import (
	"context"
	"errors"

	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/persistence/clinic"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNotificationRepository implements NotificationRepository using GORM
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

// FindByIDForClinic finds a notification by ID within a clinic
func (r *GormNotificationRepository) FindByIDForClinic(ctx context.Context, clinicID, id uuid.UUID) (*notification.Notification, error) {
	var n notification.Notification
	if err := r.db.WithContext(ctx).
		Scopes(clinic.Scope(clinicID)).
		Where("id = ?", id).
		First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// FindAllForClinic finds notifications for a clinic, optionally narrowed
// by department and status
func (r *GormNotificationRepository) FindAllForClinic(ctx context.Context, clinicID uuid.UUID, filter shared.Filter) ([]notification.Notification, error) {
	query := r.db.WithContext(ctx).Model(&notification.Notification{}).
		Scopes(clinic.Scope(clinicID))

	if department, ok := filter.Filters["department"]; ok {
		query = query.Where("department = ?", department)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var notifications []notification.Notification
	filter.OrderBy = ValidateSortField(filter.OrderBy, NotificationSortFields, "")
	if err := applyListing(query, filter, "created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread counts unread notifications for a department badge
func (r *GormNotificationRepository) CountUnread(ctx context.Context, clinicID uuid.UUID, department string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Scopes(clinic.Scope(clinicID)).
		Where("department = ? AND status = ?", department, notification.StatusUnread).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a notification
func (r *GormNotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Save(n).Error
}

// Ensure GormNotificationRepository implements NotificationRepository
var _ notification.NotificationRepository = (*GormNotificationRepository)(nil)

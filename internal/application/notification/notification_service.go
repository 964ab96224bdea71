package notification

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/backend/internal/domain/notification"
	"github.com/clinicore/backend/internal/domain/ordering"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BadgeCache caches per-department unread counts. Misses fall through to
// the database, so a cold or unavailable cache only costs a query.
type BadgeCache interface {
	GetUnreadCount(ctx context.Context, clinicID uuid.UUID, department string) (int64, bool, error)
	SetUnreadCount(ctx context.Context, clinicID uuid.UUID, department string, count int64, ttl time.Duration) error
	Invalidate(ctx context.Context, clinicID uuid.UUID, department string) error
}

// badgeTTL bounds staleness when an invalidation is lost
const badgeTTL = 5 * time.Minute

// NotificationService routes work notifications to department inboxes and
// keeps the unread badge counts.
type NotificationService struct {
	notificationRepo notification.NotificationRepository
	orderRepo        ordering.ServiceOrderRepository
	cache            BadgeCache
	logger           *zap.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo notification.NotificationRepository, orderRepo ordering.ServiceOrderRepository, cache BadgeCache, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		orderRepo:        orderRepo,
		cache:            cache,
		logger:           logger,
	}
}

// Notify delivers a notification to a department inbox
func (s *NotificationService) Notify(ctx context.Context, clinicID uuid.UUID, req NotifyRequest) (*NotificationResponse, error) {
	notice, err := notification.NewNotification(clinicID, req.Department, notification.Message{
		PatientID: req.PatientID,
		OrderID:   req.OrderID,
		Type:      req.Type,
		Action:    req.Action,
		Text:      req.Text,
	})
	if err != nil {
		return nil, err
	}
	if err := s.notificationRepo.Save(ctx, notice); err != nil {
		return nil, err
	}
	s.invalidateBadge(ctx, clinicID, req.Department)

	response := ToNotificationResponse(notice)
	return &response, nil
}

// UpdateStatus moves a notification between unread, read and completed.
// Completing a notification that references an order also tries to close
// the order out; that side link is best effort and never fails the status
// update.
func (s *NotificationService) UpdateStatus(ctx context.Context, clinicID, notificationID uuid.UUID, status notification.Status) (*NotificationResponse, error) {
	notice, err := s.notificationRepo.FindByIDForClinic(ctx, clinicID, notificationID)
	if err != nil {
		return nil, err
	}
	if err := notice.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.notificationRepo.Save(ctx, notice); err != nil {
		return nil, err
	}
	s.invalidateBadge(ctx, clinicID, notice.Department)

	if status == notification.StatusCompleted && notice.Message.OrderID != nil {
		s.completeLinkedOrder(ctx, clinicID, *notice.Message.OrderID)
	}

	response := ToNotificationResponse(notice)
	return &response, nil
}

// completeLinkedOrder rejects nothing and reports nothing upward: a linked
// order that is missing or already past Pending just leaves a log line.
func (s *NotificationService) completeLinkedOrder(ctx context.Context, clinicID, orderID uuid.UUID) {
	order, err := s.orderRepo.FindByIDForClinic(ctx, clinicID, orderID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("linked order lookup failed",
				zap.String("order_id", orderID.String()), zap.Error(err))
		}
		return
	}
	if order.TestStatus.IsTerminal() {
		return
	}
	if err := order.MarkCompleted(); err != nil {
		s.logger.Warn("linked order close failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		s.logger.Warn("linked order save failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
	}
}

// List returns the clinic's notifications
func (s *NotificationService) List(ctx context.Context, clinicID uuid.UUID, filter NotificationListFilter) ([]NotificationResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Department != "" {
		domainFilter.Filters["department"] = filter.Department
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	notices, err := s.notificationRepo.FindAllForClinic(ctx, clinicID, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToNotificationResponses(notices), nil
}

// UnreadCount returns the badge count for a department inbox
func (s *NotificationService) UnreadCount(ctx context.Context, clinicID uuid.UUID, department string) (int64, error) {
	if count, ok, err := s.cache.GetUnreadCount(ctx, clinicID, department); err == nil && ok {
		return count, nil
	} else if err != nil {
		s.logger.Warn("badge cache read failed", zap.Error(err))
	}

	count, err := s.notificationRepo.CountUnread(ctx, clinicID, department)
	if err != nil {
		return 0, err
	}
	if err := s.cache.SetUnreadCount(ctx, clinicID, department, count, badgeTTL); err != nil {
		s.logger.Warn("badge cache write failed", zap.Error(err))
	}
	return count, nil
}

func (s *NotificationService) invalidateBadge(ctx context.Context, clinicID uuid.UUID, department string) {
	if err := s.cache.Invalidate(ctx, clinicID, department); err != nil {
		s.logger.Warn("badge cache invalidation failed",
			zap.String("department", department), zap.Error(err))
	}
}

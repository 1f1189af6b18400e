// Package services – NotificationService
//
// Read side of the persistence sink: paginated listing of the append-only
// credit notification records for the diagnostic API.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-sms-webhook/internal/domain"
	"github.com/tbourn/go-sms-webhook/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// NotificationService lists persisted credit notifications.
type NotificationService struct {
	DB *gorm.DB // nil when persistence is disabled
}

// ListPage returns one page of stored notifications, newest first, plus the
// total count. It returns ErrPersistenceDisabled when no database is
// configured.
func (s *NotificationService) ListPage(ctx context.Context, page, pageSize int) ([]domain.CreditNotification, int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if s.DB == nil {
		return nil, 0, ErrPersistenceDisabled
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountNotifications(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.CreditNotification{}, 0, nil
	}

	items, err := repo.ListNotificationsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// GormNotificationStore adapts the repo free functions to the
// NotificationStore interface consumed by IngestService.
type GormNotificationStore struct {
	DB *gorm.DB
}

// Insert proxies repo.InsertNotification.
func (s GormNotificationStore) Insert(ctx context.Context, n *domain.CreditNotification) (string, error) {
	return repo.InsertNotification(ctx, s.DB, n)
}

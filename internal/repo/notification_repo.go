// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only credit notification
// sink plus the aggregate queries used for listing and ETag generation.
//
// Conventions:
//   - All functions are context-aware free functions over *gorm.DB,
//     mirroring how the rest of the codebase consumes the repo layer.
//   - Errors map to ErrNotFound where a record is absent; other DB errors
//     are returned unwrapped for the caller to log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-sms-webhook/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
//
// It aliases gorm.ErrRecordNotFound so callers can use errors.Is without
// importing GORM.
var ErrNotFound = gorm.ErrRecordNotFound

// InsertNotification appends one parsed credit notification and returns its
// generated identifier. The sink is append-only: no update path exists.
func InsertNotification(ctx context.Context, db *gorm.DB, n *domain.CreditNotification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return "", err
	}
	return n.ID, nil
}

// CountNotifications returns the total number of persisted notifications.
func CountNotifications(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.CreditNotification{}).Count(&count).Error
	return count, err
}

// ListNotificationsPage returns one page of notifications, newest first.
func ListNotificationsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.CreditNotification, error) {
	var items []domain.CreditNotification
	err := db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}

// NotificationsStats returns aggregate metadata for the notifications table:
// the total row count and the greatest CreatedAt timestamp, or nil when the
// table is empty. The HTTP layer derives weak ETags from the pair.
func NotificationsStats(ctx context.Context, db *gorm.DB) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.CreditNotification{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Delivery
// model used to deduplicate retried webhook deliveries.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-sms-webhook/internal/domain"
)

// ErrDuplicate indicates that a delivery record already exists for the
// given idempotency key.
var ErrDuplicate = errors.New("duplicate")

// GetDelivery returns the non-expired delivery recorded for key, or
// ErrNotFound.
func GetDelivery(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Delivery, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Delivery
	err := db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateDelivery records the response produced for key and returns
// ErrDuplicate on unique violation (a concurrent retry won the race).
func CreateDelivery(ctx context.Context, db *gorm.DB, key string, status int, responseBody string, ttl time.Duration) (*domain.Delivery, error) {
	now := time.Now().UTC()
	rec := &domain.Delivery{
		ID:           uuid.NewString(),
		Key:          key,
		Status:       status,
		ResponseBody: responseBody,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

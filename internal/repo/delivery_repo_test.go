package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-sms-webhook/internal/domain"
)

func TestCreateDelivery_ThenGet(t *testing.T) {
	db := newTestDB(t, &domain.Delivery{})
	ctx := context.Background()

	rec, err := CreateDelivery(ctx, db, "k1", 200, `{"status":"success"}`, time.Hour)
	if err != nil {
		t.Fatalf("CreateDelivery: %v", err)
	}
	if rec.ID == "" || rec.Key != "k1" || rec.Status != 200 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetDelivery(ctx, db, "k1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetDelivery: %v", err)
	}
	if got.ResponseBody != `{"status":"success"}` {
		t.Fatalf("response body = %q", got.ResponseBody)
	}
}

func TestCreateDelivery_Duplicate(t *testing.T) {
	db := newTestDB(t, &domain.Delivery{})
	ctx := context.Background()

	if _, err := CreateDelivery(ctx, db, "dup", 200, "a", time.Hour); err != nil {
		t.Fatalf("first CreateDelivery: %v", err)
	}
	_, err := CreateDelivery(ctx, db, "dup", 200, "b", time.Hour)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestGetDelivery_Expired(t *testing.T) {
	db := newTestDB(t, &domain.Delivery{})
	ctx := context.Background()

	if _, err := CreateDelivery(ctx, db, "old", 200, "x", time.Millisecond); err != nil {
		t.Fatalf("CreateDelivery: %v", err)
	}
	_, err := GetDelivery(ctx, db, "old", time.Now().UTC().Add(time.Second))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetDelivery_EmptyKey(t *testing.T) {
	db := newTestDB(t, &domain.Delivery{})
	_, err := GetDelivery(context.Background(), db, "  ", time.Now().UTC())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetDelivery_Missing(t *testing.T) {
	db := newTestDB(t, &domain.Delivery{})
	_, err := GetDelivery(context.Background(), db, "nope", time.Now().UTC())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

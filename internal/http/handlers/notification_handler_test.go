package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-sms-webhook/internal/domain"
	"github.com/tbourn/go-sms-webhook/internal/history"
	"github.com/tbourn/go-sms-webhook/internal/repo"
	"github.com/tbourn/go-sms-webhook/internal/services"
)

func newNotificationsRouter(noteSvc NotificationService, db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubIngestSvc{fn: nil}, noteSvc, history.New(5), db, 0)
	r := gin.New()
	r.GET("/notifications", h.ListNotifications)
	return r
}

func seedNotifications(t *testing.T, db *gorm.DB, n int) {
	t.Helper()
	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		txn := fmt.Sprintf("%d", i)
		if _, err := repo.InsertNotification(context.Background(), db, &domain.CreditNotification{
			TransactionID: &txn,
			RawSMS:        "UPI Credit Rs.1",
			ReceivedAt:    "now",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestListNotifications_PersistenceDisabled(t *testing.T) {
	r := newNotificationsRouter(&services.NotificationService{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != ErrCodeUnavailable {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestListNotifications_ServiceError(t *testing.T) {
	r := newNotificationsRouter(stubNoteSvc{fn: func(context.Context, int, int) ([]domain.CreditNotification, int64, error) {
		return nil, 0, errors.New("db gone")
	}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Code != ErrCodeListFailed {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestListNotifications_PaginationAndETag(t *testing.T) {
	db := newWebhookDB(t)
	seedNotifications(t, db, 5)
	r := newNotificationsRouter(&services.NotificationService{DB: db}, db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?page=1&page_size=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag header")
	}

	var body ListNotificationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Notifications) != 2 {
		t.Fatalf("len = %d, want 2", len(body.Notifications))
	}
	if *body.Notifications[0].TransactionID != "4" {
		t.Fatalf("first item = %+v, want newest", body.Notifications[0])
	}
	p := body.Pagination
	if p.Page != 1 || p.PageSize != 2 || p.Total != 5 || p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("pagination = %+v", p)
	}

	// Conditional request with the same ETag short-circuits.
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications?page=1&page_size=2", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional status = %d, want 304", w.Code)
	}

	// A new insert invalidates the ETag.
	seedNotifications(t, db, 1)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/notifications?page=1&page_size=2", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("post-insert conditional status = %d, want 200", w.Code)
	}
}

func TestListNotifications_LastPage(t *testing.T) {
	db := newWebhookDB(t)
	seedNotifications(t, db, 3)
	r := newNotificationsRouter(&services.NotificationService{DB: db}, db)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications?page=2&page_size=2", nil))
	var body ListNotificationsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Notifications) != 1 || body.Pagination.HasNext {
		t.Fatalf("last page = %+v", body)
	}
}

func Test_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=-5&page_size=9999", nil)
	p, ps := clampPagination(c)
	if p != 1 || ps != 100 {
		t.Fatalf("clamp bounds got p=%d ps=%d", p, ps)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=&page_size=0", nil)
	p, ps = clampPagination(c)
	if p != 1 || ps != 1 {
		t.Fatalf("clamp zero got p=%d ps=%d", p, ps)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	p, ps = clampPagination(c)
	if p != 1 || ps != 20 {
		t.Fatalf("clamp defaults got p=%d ps=%d", p, ps)
	}
}

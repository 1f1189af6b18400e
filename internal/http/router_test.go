package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-sms-webhook/internal/config"
	"github.com/tbourn/go-sms-webhook/internal/domain"
	"github.com/tbourn/go-sms-webhook/internal/history"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:routerdb_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.CreditNotification{}, &domain.Delivery{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		RateRPS:        100,
		RateBurst:      10,
		CORS:           config.CORSConfig{AllowedOrigins: nil}, // AllowAllOrigins branch
		Security:       config.SecurityConfig{},
		IdempotencyTTL: time.Hour,
		PersistTimeout: time.Second,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db, history.New(5), testConfig())
	return r
}

func TestRegisterRoutes_HealthMetricsFallbacks(t *testing.T) {
	r := newRouter(t, newTestDB(t))

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	// Correlation ID on every response.
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404 with the error envelope
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("404 body = %s", w.Body.String())
	}

	// NoMethod → 405 (DELETE /sms-webhook)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/sms-webhook", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE /sms-webhook = %d, want 405", w.Code)
	}
}

func TestRegisterRoutes_WebhookEndToEnd(t *testing.T) {
	r := newRouter(t, newTestDB(t))

	form := url.Values{"key": {"UPI Credit Rs.150.00 Info:UPI/CREDIT/12345/ALICE on 01-02-24 08:00:00"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sms-webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("POST /sms-webhook = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Status string `json:"status"`
		Parsed struct {
			Amount *float64 `json:"amount"`
			Name   *string  `json:"name"`
		} `json:"parsed"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "success" || body.Parsed.Amount == nil || *body.Parsed.Amount != 150.00 {
		t.Fatalf("body = %s", w.Body.String())
	}

	// The delivery is visible on the /recent page.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recent", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "12345") {
		t.Fatalf("GET /recent = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_StatusAndNotifications(t *testing.T) {
	r := newRouter(t, newTestDB(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "SMS webhook receiver is running") {
		t.Fatalf("GET / = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /notifications = %d", w.Code)
	}
}

func TestRegisterRoutes_NilDBDegradesGracefully(t *testing.T) {
	r := newRouter(t, nil)

	// Webhook still accepts deliveries.
	form := url.Values{"key": {"UPI Credit Rs.10"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sms-webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /sms-webhook without db = %d", w.Code)
	}

	// Listing reports the sink as unavailable.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /notifications without db = %d, want 503", w.Code)
	}
}

func TestRegisterRoutes_AllowlistCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://ops.example"}
	RegisterRoutes(r, nil, history.New(5), cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://ops.example")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.example" {
		t.Fatalf("allowlisted origin not echoed: %q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "https://evil.example" {
		t.Fatalf("non-allowlisted origin echoed")
	}
}

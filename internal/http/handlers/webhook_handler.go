// Webhook HTTP handler.
//
// This file exposes the single ingestion endpoint:
//   - POST /sms-webhook   (receive one forwarded SMS)
//
// The handler is transport-thin: it resolves the message and receipt-time
// fields from a form-encoded (preferred) or JSON body, delegates to the
// ingest service, and translates the outcome into the wire contract the
// forwarder clients expect:
//
//   - 200 {"status":"success","parsed":{...}}         eligible, parsed
//   - 200 {"status":"ignored","reason":"..."}         not a credit message
//   - 500 {"status":"error","message":"..."}          unexpected failure
//
// Non-credit messages are deliberately acknowledged with 200 rather than an
// empty 400: forwarder apps treat 4xx as retryable and would redeliver the
// same ineligible SMS indefinitely.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// delivery exists for that key, the handler returns the recorded response
// body and sets `Idempotency-Replayed: true`. Recording is best-effort and
// never changes the response on failure.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-sms-webhook/internal/domain"
	"github.com/tbourn/go-sms-webhook/internal/history"
	"github.com/tbourn/go-sms-webhook/internal/http/middleware"
	"github.com/tbourn/go-sms-webhook/internal/repo"
	"github.com/tbourn/go-sms-webhook/internal/services"
	"github.com/tbourn/go-sms-webhook/internal/sms"
	"github.com/tbourn/go-sms-webhook/internal/sysutil"
)

//
// Service contracts (context-aware)
//

// IngestService defines the webhook orchestration consumed by the handler.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IngestService interface {
	// Ingest parses one delivery and performs the history/persistence side
	// effects. Ineligible messages return sms.ErrNotCredit.
	Ingest(ctx context.Context, message, receivedAt string, fields map[string]string) (*services.IngestResult, error)
}

// NotificationService defines read access to the persisted notifications.
type NotificationService interface {
	// ListPage returns a page of stored notifications and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.CreditNotification, int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the receiver. It depends on service
// interfaces to keep transport concerns separate from the parsing and
// persistence logic; the *gorm.DB is only used for delivery dedup records
// and ETag statistics and may be nil when persistence is disabled.
type Handlers struct {
	ingestSvc IngestService
	noteSvc   NotificationService
	hist      *history.Recent

	db          *gorm.DB
	deliveryTTL time.Duration
}

// New constructs a Handlers instance bound to the given collaborators.
func New(ingestSvc IngestService, noteSvc NotificationService, hist *history.Recent, db *gorm.DB, deliveryTTL time.Duration) *Handlers {
	if deliveryTTL <= 0 {
		deliveryTTL = 24 * time.Hour
	}
	return &Handlers{
		ingestSvc:   ingestSvc,
		noteSvc:     noteSvc,
		hist:        hist,
		db:          db,
		deliveryTTL: deliveryTTL,
	}
}

//
// DTOs
//

// SuccessResponse is the body returned for an accepted credit message.
type SuccessResponse struct {
	Status string                    `json:"status" example:"success"`
	Parsed *domain.ParsedTransaction `json:"parsed"`
}

// IgnoredResponse is the body returned for messages that are not UPI credit
// notifications. The 200 status is part of the contract (see file header).
type IgnoredResponse struct {
	Status string `json:"status" example:"ignored"`
	Reason string `json:"reason" example:"not a credit message"`
}

// WebhookErrorResponse is the body returned when ingestion fails
// unexpectedly. It mirrors the original wire contract rather than the
// diagnostic ErrorResponse envelope.
type WebhookErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

//
// Helpers
//

// requestFields snapshots the inbound payload as a flat string map: the
// form-encoded body when present, otherwise a best-effort JSON object read.
// Non-string JSON values are skipped; an unreadable body yields an empty map
// (the eligibility gate then rejects the empty message).
func requestFields(c *gin.Context) map[string]string {
	fields := make(map[string]string)

	if err := c.Request.ParseForm(); err == nil {
		for k, vv := range c.Request.PostForm {
			if len(vv) > 0 {
				fields[k] = vv[0]
			}
		}
	}
	if len(fields) > 0 {
		return fields
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err == nil {
		for k, v := range body {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
	}
	return fields
}

// recordDelivery stores the produced response for the request's delivery
// key, if one was supplied and a database is available. Best effort: every
// failure path just returns.
func (h *Handlers) recordDelivery(c *gin.Context, status int, body any) {
	if h.db == nil {
		return
	}
	key, okKey := middleware.GetDeliveryKey(c)
	if !okKey {
		return
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return
	}
	if _, err := repo.CreateDelivery(c.Request.Context(), h.db, key, status, string(raw), h.deliveryTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("delivery record not stored")
	}
}

//
// Handler
//

// ReceiveSMS godoc
// @ID          receiveSMS
// @Summary     Ingest one forwarded SMS
// @Description Accepts a form-encoded (preferred) or JSON body with the message text in `key` or `msg`
// @Description (first non-empty wins) and an optional `time` receipt timestamp. UPI credit messages are
// @Description parsed into structured fields; anything else is acknowledged as ignored.
// @Description Supports delivery dedup via the Idempotency-Key header (same key → recorded response).
// @Tags        Webhook
// @Accept      x-www-form-urlencoded
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header    string  false "Stable per-SMS key for safe retries"
// @Param       key              formData  string  false "Message text (primary field)"
// @Param       msg              formData  string  false "Message text (fallback field)"
// @Param       time             formData  string  false "Receipt time; defaults to server time (RFC 3339)"
//
// @Success     200  {object}  handlers.SuccessResponse       "Parsed credit notification (or ignored body)"
// @Failure     500  {object}  handlers.WebhookErrorResponse  "Internal error"
// @Router      /sms-webhook [post]
func (h *Handlers) ReceiveSMS(c *gin.Context) {
	ctx := c.Request.Context()

	// Replay path: serve the recorded response for a retried delivery.
	if key, okKey := middleware.GetDeliveryKey(c); okKey && h.db != nil {
		if rec, err := repo.GetDelivery(ctx, h.db, key, time.Now().UTC()); err == nil && rec != nil {
			c.Header("Idempotency-Replayed", "true")
			c.Data(rec.Status, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		}
	}

	fields := requestFields(c)
	message := sysutil.FirstNonEmpty(fields["key"], fields["msg"])
	receivedAt := strings.TrimSpace(fields["time"])
	if receivedAt == "" {
		receivedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := h.ingestSvc.Ingest(ctx, message, receivedAt, fields)
	if err != nil {
		if errors.Is(err, sms.ErrNotCredit) {
			middleware.LoggerFrom(c).Info().Msg("ignored non-credit message")
			ok(c, http.StatusOK, IgnoredResponse{Status: "ignored", Reason: "not a credit message"})
			return
		}
		c.JSON(http.StatusInternalServerError, WebhookErrorResponse{Status: "error", Message: err.Error()})
		return
	}

	// Dedup record only for accepted deliveries; ignored messages have no
	// side effects worth deduplicating.
	h.recordDelivery(c, http.StatusOK, res.Response)

	ok(c, http.StatusOK, res.Response)
}

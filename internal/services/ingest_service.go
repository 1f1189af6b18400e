// Package services – IngestService
//
// This file implements IngestService, the application-level component that
// orchestrates one inbound webhook delivery: it runs the SMS parser, records
// the request/response pair in the recent-history cache, and hands the parsed
// record to the persistence sink on a best-effort basis.
//
// Ordering contract: the parser runs first; ineligible messages return before
// the cache or the sink are touched. The cache push happens on the request
// path (its lock covers only the copy), while the sink write runs in a
// detached goroutine so that a slow or failing database can never delay or
// alter the HTTP response.
//
// Observability: Ingest is OpenTelemetry-instrumented, and two Prometheus
// counters track ingest outcomes and sink write failures. Message text is
// never placed in span attributes (it is PII).

package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-sms-webhook/internal/domain"
	"github.com/tbourn/go-sms-webhook/internal/history"
	"github.com/tbourn/go-sms-webhook/internal/sms"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ingestTotal counts webhook deliveries by parse outcome.
	ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_ingest_total",
			Help: "Total webhook deliveries processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// persistFailures counts best-effort sink writes that did not land.
	persistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sms_persist_failures_total",
			Help: "Total failed notification sink writes (non-fatal).",
		},
	)
)

func init() {
	prometheus.MustRegister(ingestTotal, persistFailures)
}

// NotificationStore is the persistence collaborator: an append-only document
// sink. Implementations must be safe for concurrent use; failures are logged
// by the service and never surface to the webhook sender.
type NotificationStore interface {
	// Insert appends one notification and returns its identifier.
	Insert(ctx context.Context, n *domain.CreditNotification) (string, error)
}

// IngestResult carries the parsed transaction together with the exact
// response body produced for it, so transport and history stay in agreement.
type IngestResult struct {
	Parsed *domain.ParsedTransaction
	// Response is the success body returned to the sender and recorded in
	// the history entry: {"status":"success","parsed":{...}}.
	Response map[string]any
}

// IngestService coordinates parsing, recent-history recording, and
// best-effort persistence for inbound SMS webhook deliveries.
type IngestService struct {
	// Store is the notification sink; nil disables persistence entirely
	// (graceful degradation, not an error).
	Store NotificationStore
	// History receives one entry per accepted delivery.
	History *history.Recent
	// PersistTimeout bounds the detached sink write; <= 0 defaults to 5s.
	PersistTimeout time.Duration
}

// Ingest processes one delivery. message is the resolved SMS text,
// receivedAt the resolved receipt time, and fields the raw request snapshot
// recorded into the history entry and the persisted payload.
//
// Ineligible messages return sms.ErrNotCredit with no side effects. Any
// other error is an internal failure the handler maps to a 500.
func (s *IngestService) Ingest(ctx context.Context, message, receivedAt string, fields map[string]string) (*IngestResult, error) {
	tr := otel.Tracer("services/IngestService")
	_, span := tr.Start(ctx, "Ingest",
		trace.WithAttributes(attribute.Int("fields.count", len(fields))),
	)
	defer span.End()

	parsed, err := sms.Parse(message, receivedAt)
	if err != nil {
		span.SetAttributes(attribute.String("outcome", "ignored"))
		ingestTotal.WithLabelValues("ignored").Inc()
		return nil, err
	}
	span.SetAttributes(attribute.String("outcome", "parsed"))
	ingestTotal.WithLabelValues("parsed").Inc()

	result := &IngestResult{
		Parsed: parsed,
		Response: map[string]any{
			"status": "success",
			"parsed": parsed,
		},
	}

	s.History.Push(history.Entry{
		ReceivedAt: parsed.ReceivedAt,
		Request:    fields,
		Parsed:     *parsed,
		Response:   result.Response,
	})

	if s.Store != nil {
		s.persistAsync(parsed, fields)
	}

	return result, nil
}

// persistAsync hands the parsed record to the sink without blocking the
// response path. Failures are logged and counted, never propagated.
func (s *IngestService) persistAsync(parsed *domain.ParsedTransaction, fields map[string]string) {
	timeout := s.PersistTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		// Map of strings cannot fail to marshal; guard anyway.
		payload = nil
	}

	n := &domain.CreditNotification{
		Name:          parsed.Name,
		TransactionID: parsed.TransactionID,
		Amount:        parsed.Amount,
		SMSTimestamp:  parsed.Timestamp,
		RawSMS:        parsed.RawSMS,
		ReceivedAt:    parsed.ReceivedAt,
		Payload:       string(payload),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := s.Store.Insert(ctx, n); err != nil {
			persistFailures.Inc()
			log.Error().Err(err).Msg("notification sink write failed")
		}
	}()
}

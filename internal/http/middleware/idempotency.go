// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements delivery deduplication for the webhook endpoint. SMS
// forwarder apps retry failed or slow deliveries, often several times; a
// client that sends a stable Idempotency-Key per SMS lets the receiver
// acknowledge retries by replaying the recorded response instead of parsing
// and persisting the message again.
//
// The middleware validates the header, stashes the normalized key, and
// optionally consults a lookup to flag known replays so downstream
// components can short-circuit (and the rate limiter can wave the retry
// through). Serving the stored response body remains the handler's job.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header that clients use to convey a
// stable per-SMS delivery key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetDeliveryKey returns the validated delivery key stored in the Gin
// context by DeliveryKeyValidator. The second return value indicates
// presence. Handlers should prefer this over reading the header directly.
func GetDeliveryKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the middleware detected that this request would
// replay a previously completed delivery.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// DeliveryKeyOptions configures header validation for DeliveryKeyValidator.
type DeliveryKeyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative
	// RFC7230-like token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
	// NOTE: TTL is not enforced here; enforce it inside the lookup.
}

// DeliveryLookup answers whether a still-valid recorded delivery exists for
// key at the given time. Return exists=true when the prior response can be
// replayed; return an error only for lookup failures, which must not block
// normal processing.
type DeliveryLookup func(ctx context.Context, key string, now time.Time) (exists bool, err error)

// DeliveryKeyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context, and optionally checks for a recorded
// delivery via the supplied lookup.
//
// Behavior:
//   - If the header is absent: the middleware is a no-op.
//   - If the header fails validation: responds 400 with a compact body.
//   - If the lookup reports a replay: sets replay + rate-bypass flags.
//   - Always invokes the next handler unless validation fails.
func DeliveryKeyValidator(opts DeliveryKeyOptions, lookup DeliveryLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		// RFC-7230-ish token + common safe chars.
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if exists, _ := lookup(c.Request.Context(), key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true) // let the RL middleware skip limiting
			}
		}

		c.Next()
	}
}

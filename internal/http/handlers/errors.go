// Package handlers defines HTTP-layer error codes used by the diagnostic
// endpoints and router fallbacks.
//
// The webhook endpoint itself does NOT use these codes: its response bodies
// ({"status":"success"|"ignored"|"error", ...}) are part of the wire
// contract with SMS forwarder clients and are defined in webhook_handler.go.
// The symbolic codes below cover everything else: route fallbacks, the
// notification listing, and middleware rejections.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeListFailed  = "list_failed"
	ErrCodeUnavailable = "unavailable"
)

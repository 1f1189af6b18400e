// Package services defines the business logic for webhook ingestion and the
// stored-notification read side. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Note that the parser's "not a credit message" signal
// (sms.ErrNotCredit) is deliberately not mirrored here: it is part of the
// parser's contract, and handlers check it with errors.Is directly.
package services

import "errors"

var (
	// ErrPersistenceDisabled is returned by read operations when the service
	// was constructed without a database (persistence degraded away).
	ErrPersistenceDisabled = errors.New("persistence disabled")
)

// Package sms implements the UPI credit notification parser.
//
// The parser targets exactly one vendor SMS shape and is a pure function:
// message text in, structured fields out. Each field is extracted by an
// independent pattern search, so a failed match for one field never
// suppresses extraction of the others. Logging and persistence are the
// caller's concern.
package sms

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/tbourn/go-sms-webhook/internal/domain"
)

// ErrNotCredit signals that the message is not a UPI credit notification.
// It is a benign rejection, not a server error: callers respond with the
// documented "ignored" body and skip history and persistence entirely.
var ErrNotCredit = errors.New("not a credit message")

var (
	// prefixRE locates the eligibility prefix anywhere in the message,
	// case-insensitively. Forwarder apps often prepend sender metadata
	// ("VM-HDFCBK: UPI Credit ..."), so everything before the first
	// occurrence is discarded and the prefix re-anchored.
	prefixRE = regexp.MustCompile(`(?i)UPI Credit`)

	// amountRE matches "Rs" with an optional period, then the credited
	// amount with up to two decimal places. Leftmost match wins.
	amountRE = regexp.MustCompile(`Rs\.?(\d+(?:\.\d{1,2})?)`)

	// txnRE captures the digit run of the UPI reference out of the
	// "Info:UPI/<CODE>/<digits>/" segment.
	txnRE = regexp.MustCompile(`Info:UPI/[A-Z]+/(\d+)/`)

	// nameRE captures a slash-delimited counterparty name terminated by
	// " on <digit>". The word-or-space run is greedy and leftmost-first and
	// can over-capture across multiple "/... on <digit>" segments; that
	// quirk is vendor-format behavior this parser intentionally preserves.
	nameRE = regexp.MustCompile(`/(\w[\w\s]*)\s+on\s+\d`)

	// timeRE captures the embedded event time in its exact lexical shape.
	// The value is kept verbatim, never parsed as a calendar date.
	timeRE = regexp.MustCompile(`on\s+(\d{2}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`)
)

// Parse extracts the structured fields of a UPI credit SMS.
//
// The message must contain the "UPI Credit" prefix (case-insensitive); text
// before its first occurrence is dropped so the returned RawSMS starts at
// the prefix. Messages without the prefix return ErrNotCredit.
//
// receivedAt is stored on the result as supplied; defaulting it to the
// current time is the caller's responsibility.
func Parse(message, receivedAt string) (*domain.ParsedTransaction, error) {
	loc := prefixRE.FindStringIndex(message)
	if loc == nil {
		return nil, ErrNotCredit
	}
	message = message[loc[0]:]

	p := &domain.ParsedTransaction{
		RawSMS:     message,
		ReceivedAt: receivedAt,
	}

	if m := amountRE.FindStringSubmatch(message); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.Amount = &v
		}
	}
	if m := txnRE.FindStringSubmatch(message); m != nil {
		p.TransactionID = &m[1]
	}
	if m := nameRE.FindStringSubmatch(message); m != nil {
		name := strings.TrimSpace(m[1])
		p.Name = &name
	}
	if m := timeRE.FindStringSubmatch(message); m != nil {
		p.Timestamp = &m[1]
	}

	return p, nil
}

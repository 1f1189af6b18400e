package sms

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_FullCreditMessage(t *testing.T) {
	msg := "UPI Credit Rs.2500.00 Info:UPI/CREDIT/405915063732/JOHN DOE on 15-03-24 14:22:01"
	p, err := Parse(msg, "2024-03-15T14:22:05Z")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if p.Amount == nil || *p.Amount != 2500.00 {
		t.Fatalf("amount = %v, want 2500.00", p.Amount)
	}
	if p.TransactionID == nil || *p.TransactionID != "405915063732" {
		t.Fatalf("transaction id = %v, want 405915063732", p.TransactionID)
	}
	if p.Name == nil || *p.Name != "JOHN DOE" {
		t.Fatalf("name = %v, want JOHN DOE", p.Name)
	}
	if p.Timestamp == nil || *p.Timestamp != "15-03-24 14:22:01" {
		t.Fatalf("timestamp = %v, want 15-03-24 14:22:01", p.Timestamp)
	}
	if p.RawSMS != msg {
		t.Fatalf("raw sms = %q, want original message", p.RawSMS)
	}
	if p.ReceivedAt != "2024-03-15T14:22:05Z" {
		t.Fatalf("received at = %q", p.ReceivedAt)
	}
}

// A space between the slash and the counterparty name defeats the name
// pattern (it requires a word character right after the slash). The other
// fields still extract independently.
func TestParse_SpaceAfterSlash_NoName(t *testing.T) {
	msg := "UPI Credit Rs.2500.00 Info:UPI/CREDIT/405915063732/ JOHN DOE on 15-03-24 14:22:01"
	p, err := Parse(msg, "now")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if p.Name != nil {
		t.Fatalf("name = %q, want nil", *p.Name)
	}
	if p.Amount == nil || *p.Amount != 2500.00 {
		t.Fatalf("amount = %v, want 2500.00", p.Amount)
	}
	if p.TransactionID == nil || *p.TransactionID != "405915063732" {
		t.Fatalf("transaction id = %v", p.TransactionID)
	}
	if p.Timestamp == nil || *p.Timestamp != "15-03-24 14:22:01" {
		t.Fatalf("timestamp = %v", p.Timestamp)
	}
}

func TestParse_NotCredit(t *testing.T) {
	for _, msg := range []string{
		"Your OTP is 123456. Do not share it.",
		"UPI Debit Rs.100.00 Info:UPI/DEBIT/1/X on 01-01-24 00:00:00",
		"",
	} {
		p, err := Parse(msg, "now")
		if !errors.Is(err, ErrNotCredit) {
			t.Fatalf("Parse(%q) err = %v, want ErrNotCredit", msg, err)
		}
		if p != nil {
			t.Fatalf("Parse(%q) returned non-nil result", msg)
		}
	}
}

func TestParse_PrefixAnywhere_CaseInsensitive(t *testing.T) {
	msg := "VM-HDFCBK: upi credit Rs.99 received"
	p, err := Parse(msg, "now")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	// Text before the prefix is discarded.
	if !strings.HasPrefix(p.RawSMS, "upi credit") {
		t.Fatalf("raw sms = %q, want prefix-anchored", p.RawSMS)
	}
	if p.Amount == nil || *p.Amount != 99 {
		t.Fatalf("amount = %v, want 99", p.Amount)
	}
}

func TestParse_PartialFields(t *testing.T) {
	p, err := Parse("UPI Credit Rs.500", "now")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if p.Amount == nil || *p.Amount != 500 {
		t.Fatalf("amount = %v, want 500", p.Amount)
	}
	if p.TransactionID != nil || p.Name != nil || p.Timestamp != nil {
		t.Fatalf("expected only amount set, got %+v", p)
	}
}

func TestParse_AmountVariants(t *testing.T) {
	cases := []struct {
		msg  string
		want float64
	}{
		{"UPI Credit Rs100", 100},                // no period
		{"UPI Credit Rs.100", 100},               // no decimals
		{"UPI Credit Rs.1.5 something", 1.5},     // one decimal
		{"UPI Credit Rs.0.01 and Rs.999", 0.01},  // leftmost wins
		{"UPI Credit got Rs.2500.123 here", 2500.12}, // at most two decimals captured
	}
	for _, c := range cases {
		p, err := Parse(c.msg, "now")
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", c.msg, err)
		}
		if p.Amount == nil || *p.Amount != c.want {
			t.Fatalf("Parse(%q) amount = %v, want %v", c.msg, p.Amount, c.want)
		}
	}
}

// Parsing the same message twice yields identical fields.
func TestParse_Idempotent(t *testing.T) {
	msg := "UPI Credit Rs.42.00 Info:UPI/CREDIT/777/ACME CORP on 01-02-03 04:05:06"
	a, err := Parse(msg, "t1")
	if err != nil {
		t.Fatalf("first Parse: %v", err)
	}
	b, err := Parse(msg, "t1")
	if err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	if *a.Amount != *b.Amount || *a.TransactionID != *b.TransactionID ||
		*a.Name != *b.Name || *a.Timestamp != *b.Timestamp || a.RawSMS != b.RawSMS {
		t.Fatalf("repeated parse diverged: %+v vs %+v", a, b)
	}
}

func TestParse_NameIsTrimmed(t *testing.T) {
	p, err := Parse("UPI Credit Rs.1 Info:UPI/CREDIT/1/JANE ROE  on 01-01-24 00:00:00", "now")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if p.Name == nil || *p.Name != "JANE ROE" {
		t.Fatalf("name = %v, want JANE ROE", p.Name)
	}
}

// Package domain defines the core data types of the SMS webhook receiver:
// the parser output and the persistence models mapped with GORM.
package domain

import "time"

// ParsedTransaction is the structured result of parsing one UPI credit SMS.
//
// Every pattern-extracted field is independently optional: a pointer is nil
// when its pattern did not match, and serializes as JSON null (never a
// fabricated placeholder). RawSMS and ReceivedAt are always present.
//
// Fields:
//   - Name: counterparty extracted from the message text.
//   - TransactionID: UPI reference number (digit run).
//   - Amount: credited amount, two-decimal precision.
//   - Timestamp: event time embedded in the SMS, stored verbatim in the
//     lexical form "DD-MM-YY HH:MM:SS" and never validated as a calendar date.
//   - RawSMS: the message text considered, after prefix normalization.
//   - ReceivedAt: caller-supplied receipt time (RFC 3339 when defaulted).
type ParsedTransaction struct {
	Name          *string  `json:"name" example:"JOHN DOE"`
	TransactionID *string  `json:"transaction_id" example:"123456789012"`
	Amount        *float64 `json:"amount" example:"500"`
	Timestamp     *string  `json:"timestamp" example:"15-03-24 10:30:00"`
	RawSMS        string   `json:"raw_sms"`
	ReceivedAt    string   `json:"received_at" example:"2024-03-15T10:30:02Z"`
}

// CreditNotification is one persisted record of an accepted webhook delivery.
// Rows are append-only: the service inserts and lists them but never updates
// or deletes. The sink is best-effort; a failed insert is logged and the
// HTTP response is unaffected.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - Name / TransactionID / Amount / SMSTimestamp: the optional parsed
//     fields, nullable columns mirroring ParsedTransaction.
//   - RawSMS: full normalized message text.
//   - ReceivedAt: receipt time string as supplied by the caller.
//   - Payload: JSON snapshot of the raw inbound request fields.
//   - CreatedAt: insert timestamp managed by GORM, indexed for listing.
type CreditNotification struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	Name          *string   `json:"name"           gorm:"type:varchar(255)"`
	TransactionID *string   `json:"transaction_id" gorm:"type:varchar(32);index:idx_notifications_txn"`
	Amount        *float64  `json:"amount"`
	SMSTimestamp  *string   `json:"timestamp"      gorm:"column:sms_timestamp;type:varchar(32)"`
	RawSMS        string    `json:"raw_sms"        gorm:"type:text;not null"`
	ReceivedAt    string    `json:"received_at"    gorm:"type:varchar(64);not null"`
	Payload       string    `json:"-"              gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_notifications_created"`
}

// TableName returns the database table name for CreditNotification.
func (CreditNotification) TableName() string { return "credit_notifications" }

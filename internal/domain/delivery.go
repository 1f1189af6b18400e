// Package domain defines the core data types of the SMS webhook receiver.
package domain

import "time"

// Delivery records the outcome of a previously processed webhook delivery,
// keyed by the client-supplied Idempotency-Key. Forwarder apps retry
// deliveries aggressively; replaying the recorded response keeps retries
// from producing duplicate notifications.
type Delivery struct {
	ID           string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Key          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_delivery_key"`
	Status       int       `gorm:"type:INTEGER NOT NULL"`
	ResponseBody string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt    time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Delivery) TableName() string { return "deliveries" }

// internal/model/delivery_log.go
package model

import "time"

type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryLog is the terminal outcome of one delivery attempt. At most one
// entry exists per (campaign_id, recipient_id); the unique constraint on that
// pair is what makes logging exactly-once under races.
type DeliveryLog struct {
	ID             int            `db:"id" json:"id"`
	CampaignID     int            `db:"campaign_id" json:"campaign_id"`
	RecipientID    int            `db:"recipient_id" json:"recipient_id"`
	RecipientEmail string         `db:"recipient_email" json:"recipient_email"`
	Status         DeliveryStatus `db:"status" json:"status"`
	FailureReason  string         `db:"failure_reason" json:"failure_reason,omitempty"`
	SentAt         time.Time      `db:"sent_at" json:"sent_at"`
}

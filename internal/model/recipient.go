// internal/model/recipient.go
package model

import "time"

type SubscriptionStatus string

const (
	Subscribed   SubscriptionStatus = "subscribed"
	Unsubscribed SubscriptionStatus = "unsubscribed"
)

type Recipient struct {
	ID                 int                `db:"id" json:"id"`
	Name               string             `db:"name" json:"name"`
	Email              string             `db:"email" json:"email"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}

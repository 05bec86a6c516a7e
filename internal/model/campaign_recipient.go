// internal/model/campaign_recipient.go
package model

import "time"

// CampaignRecipient is one row of a campaign's recipient snapshot, fixed at
// claim time. StatusSnapshot records the recipient's subscription status as of
// the claim; later subscription changes do not affect a running campaign.
type CampaignRecipient struct {
	ID             int                `db:"id" json:"id"`
	CampaignID     int                `db:"campaign_id" json:"campaign_id"`
	RecipientID    int                `db:"recipient_id" json:"recipient_id"`
	StatusSnapshot SubscriptionStatus `db:"status_snapshot" json:"status_snapshot"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
}

// internal/model/campaign.go
package model

import "time"

// CampaignStatus is the lifecycle state of a campaign. Transitions are
// monotonic along draft -> scheduled -> in_progress -> completed, with
// cancelled reachable from draft or scheduled only.
type CampaignStatus string

const (
	CampaignDraft      CampaignStatus = "draft"
	CampaignScheduled  CampaignStatus = "scheduled"
	CampaignInProgress CampaignStatus = "in_progress"
	CampaignCompleted  CampaignStatus = "completed"
	CampaignCancelled  CampaignStatus = "cancelled"
)

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:      {CampaignScheduled, CampaignCancelled},
	CampaignScheduled:  {CampaignInProgress, CampaignCancelled},
	CampaignInProgress: {CampaignCompleted},
	CampaignCompleted:  {},
	CampaignCancelled:  {},
}

// Valid reports whether s is one of the known campaign states.
func (s CampaignStatus) Valid() bool {
	_, ok := campaignTransitions[s]
	return ok
}

// CanTransitionTo reports whether the state graph allows moving from s to next.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	for _, allowed := range campaignTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Campaign struct {
	ID            int            `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Subject       string         `db:"subject" json:"subject"`
	Body          string         `db:"body" json:"body"`
	ScheduledTime time.Time      `db:"scheduled_time" json:"scheduled_time"`
	Status        CampaignStatus `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

package repository

import (
	"database/sql"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
)

// CampaignRecipientRepositoryInterface reads the recipient snapshot a claim
// materialized. Snapshot rows are written only inside ClaimDue's transaction.
type CampaignRecipientRepositoryInterface interface {
	ListByCampaign(campaignID int) ([]model.CampaignRecipient, error)
	ListDispatchable(campaignID int) ([]model.CampaignRecipient, error)
	CountByCampaign(campaignID int) (int, error)
}

type CampaignRecipientRepository struct {
	DB *sql.DB
}

func (r *CampaignRecipientRepository) ListByCampaign(campaignID int) ([]model.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, recipient_id, status_snapshot, created_at
		FROM campaign_recipients
		WHERE campaign_id = $1
		ORDER BY recipient_id
	`
	return r.list(query, campaignID)
}

// ListDispatchable returns the snapshot entries whose captured status is
// subscribed; only those get delivery tasks.
func (r *CampaignRecipientRepository) ListDispatchable(campaignID int) ([]model.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, recipient_id, status_snapshot, created_at
		FROM campaign_recipients
		WHERE campaign_id = $1 AND status_snapshot = 'subscribed'
		ORDER BY recipient_id
	`
	return r.list(query, campaignID)
}

func (r *CampaignRecipientRepository) CountByCampaign(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = $1`, campaignID).Scan(&count)
	return count, err
}

func (r *CampaignRecipientRepository) list(query string, campaignID int) ([]model.CampaignRecipient, error) {
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.CampaignRecipient{}
	for rows.Next() {
		var e model.CampaignRecipient
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.RecipientID, &e.StatusSnapshot, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ CampaignRecipientRepositoryInterface = (*CampaignRecipientRepository)(nil)

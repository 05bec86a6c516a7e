package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
)

// Postgres error code for unique_violation.
const uniqueViolation = pq.ErrorCode("23505")

type DeliveryLogRepositoryInterface interface {
	Append(l *model.DeliveryLog) error
	Exists(campaignID, recipientID int) (bool, error)
	ListByCampaign(campaignID int) ([]model.DeliveryLog, error)
	CountByCampaign(campaignID int) (int, error)
	CountByStatus(campaignID int) (map[model.DeliveryStatus]int, error)
}

type DeliveryLogRepository struct {
	DB *sql.DB
}

// Append inserts one delivery outcome. The unique constraint on
// (campaign_id, recipient_id) arbitrates racing writers: the loser gets
// ErrDuplicateDelivery and must discard its result.
func (r *DeliveryLogRepository) Append(l *model.DeliveryLog) error {
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}
	query := `
		INSERT INTO delivery_logs (campaign_id, recipient_id, recipient_email, status, failure_reason, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRow(query, l.CampaignID, l.RecipientID, l.RecipientEmail, l.Status, l.FailureReason, l.SentAt).Scan(&l.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewDuplicateDelivery(l.CampaignID, l.RecipientID)
		}
		return err
	}
	return nil
}

func (r *DeliveryLogRepository) Exists(campaignID, recipientID int) (bool, error) {
	query := `
		SELECT 1 FROM delivery_logs
		WHERE campaign_id = $1 AND recipient_id = $2
		LIMIT 1
	`
	var tmp int
	err := r.DB.QueryRow(query, campaignID, recipientID).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *DeliveryLogRepository) ListByCampaign(campaignID int) ([]model.DeliveryLog, error) {
	query := `
		SELECT id, campaign_id, recipient_id, recipient_email, status, failure_reason, sent_at
		FROM delivery_logs
		WHERE campaign_id = $1
		ORDER BY id
	`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.DeliveryLog{}
	for rows.Next() {
		var l model.DeliveryLog
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.RecipientID, &l.RecipientEmail, &l.Status, &l.FailureReason, &l.SentAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *DeliveryLogRepository) CountByCampaign(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM delivery_logs WHERE campaign_id = $1`, campaignID).Scan(&count)
	return count, err
}

// CountByStatus returns sent/failed counts for a campaign, zero-filled.
func (r *DeliveryLogRepository) CountByStatus(campaignID int) (map[model.DeliveryStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM delivery_logs WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[model.DeliveryStatus]int{model.DeliverySent: 0, model.DeliveryFailed: 0}
	for rows.Next() {
		var status model.DeliveryStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ DeliveryLogRepositoryInterface = (*DeliveryLogRepository)(nil)

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	List(offset, limit int, status model.CampaignStatus) ([]*model.Campaign, int, error)
	ListAll() ([]*model.Campaign, error)

	// State machine
	UpdateStatusFrom(id int, from, to model.CampaignStatus) (bool, error)
	ClaimDue(now time.Time) (*model.Campaign, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
		INSERT INTO campaigns (name, subject, body, scheduled_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRow(query, c.Name, c.Subject, c.Body, c.ScheduledTime, c.Status, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `
		SELECT id, name, subject, body, scheduled_time, status, created_at, updated_at
		FROM campaigns WHERE id=$1
	`
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(&c.ID, &c.Name, &c.Subject, &c.Body, &c.ScheduledTime, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(offset, limit int, status model.CampaignStatus) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, name, subject, body, scheduled_time, status, created_at, updated_at FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Subject, &c.Body, &c.ScheduledTime, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		countArgs = append(countArgs, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) ListAll() ([]*model.Campaign, error) {
	query := `SELECT id, name, subject, body, scheduled_time, status, created_at, updated_at FROM campaigns ORDER BY id DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Subject, &c.Body, &c.ScheduledTime, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// ====================== Claim / transitions ======================

// UpdateStatusFrom is the single compare-and-swap every status change goes
// through. It reports whether this caller performed the transition, so racing
// callers can tell winner from loser without a second read.
func (r *CampaignRepository) UpdateStatusFrom(id int, from, to model.CampaignStatus) (bool, error) {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`
	res, err := r.DB.Exec(query, to, time.Now(), id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimDue atomically claims one due campaign: it locks the row, moves
// scheduled -> in_progress, and materializes the campaign_recipients snapshot
// from currently subscribed recipients, all inside one transaction. Returns
// nil when no campaign is due. Concurrent claimers skip locked rows, so each
// due campaign is handed out exactly once.
func (r *CampaignRepository) ClaimDue(now time.Time) (*model.Campaign, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		SELECT id, name, subject, body, scheduled_time, status, created_at, updated_at
		FROM campaigns
		WHERE status=$1 AND scheduled_time <= $2
		ORDER BY scheduled_time, id
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	var c model.Campaign
	err = tx.QueryRow(query, model.CampaignScheduled, now).Scan(
		&c.ID, &c.Name, &c.Subject, &c.Body, &c.ScheduledTime, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	res, err := tx.Exec(
		`UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3 AND status=$4`,
		model.CampaignInProgress, now, c.ID, model.CampaignScheduled,
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Lost the race despite the row lock; treat as nothing due.
		return nil, nil
	}

	_, err = tx.Exec(`
		INSERT INTO campaign_recipients (campaign_id, recipient_id, status_snapshot, created_at)
		SELECT $1, id, subscription_status, $2
		FROM recipients
		WHERE subscription_status = $3
		ON CONFLICT (campaign_id, recipient_id) DO NOTHING
	`, c.ID, now, model.Subscribed)
	if err != nil {
		// The rollback reverts the status change too: claim is all-or-nothing.
		return nil, fmt.Errorf("materialize recipient snapshot for campaign %d: %w", c.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	c.Status = model.CampaignInProgress
	c.UpdatedAt = now
	return &c, nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)

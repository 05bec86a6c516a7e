package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
)

// RecipientRepositoryInterface defines methods used by the importer and the
// delivery executor.
type RecipientRepositoryInterface interface {
	Create(rec *model.Recipient) error
	GetByID(id int) (*model.Recipient, error)
	GetByEmail(email string) (*model.Recipient, error)
	ListAll() ([]model.Recipient, error)
}

// RecipientRepository is the concrete implementation
type RecipientRepository struct {
	DB *sql.DB
}

// Create inserts a recipient. The unique index on email backs the importer's
// dedupe: a conflicting insert comes back as ErrDuplicateRecipient.
func (r *RecipientRepository) Create(rec *model.Recipient) error {
	rec.CreatedAt = time.Now()
	if rec.SubscriptionStatus == "" {
		rec.SubscriptionStatus = model.Subscribed
	}
	query := `
		INSERT INTO recipients (name, email, subscription_status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRow(query, rec.Name, rec.Email, rec.SubscriptionStatus, rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewDuplicateRecipient(rec.Email)
		}
		return err
	}
	return nil
}

// GetByID fetches a recipient by ID
func (r *RecipientRepository) GetByID(id int) (*model.Recipient, error) {
	query := `
		SELECT id, name, email, subscription_status, created_at
		FROM recipients
		WHERE id = $1
	`
	row := r.DB.QueryRow(query, id)

	var rec model.Recipient
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.SubscriptionStatus, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &rec, nil
}

// GetByEmail fetches a recipient by email
func (r *RecipientRepository) GetByEmail(email string) (*model.Recipient, error) {
	query := `
		SELECT id, name, email, subscription_status, created_at
		FROM recipients
		WHERE email = $1
	`
	row := r.DB.QueryRow(query, email)

	var rec model.Recipient
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.SubscriptionStatus, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &rec, nil
}

// ListAll fetches all recipients
func (r *RecipientRepository) ListAll() ([]model.Recipient, error) {
	query := `
		SELECT id, name, email, subscription_status, created_at
		FROM recipients
		ORDER BY id
	`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var rec model.Recipient
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.SubscriptionStatus, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)

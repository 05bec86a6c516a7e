// internal/service/recipient_service.go
package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
)

type RecipientService struct {
	RecipientRepo repository.RecipientRepositoryInterface
	Log           *zap.Logger
}

type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Invalid int `json:"invalid"`
}

// ImportCSV bulk-loads recipients from a CSV with header columns
// name,email,subscription_status. Rows missing name or email are invalid,
// duplicate emails (in the store or earlier in the file) are skipped, and any
// status other than unsubscribed defaults to subscribed. Rows insert
// independently; a partial import keeps what already succeeded.
func (s *RecipientService) ImportCSV(r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewValidation("file", "csv file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, apperrors.NewValidation("file", "csv header is missing the name column")
	}
	emailIdx, ok := cols["email"]
	if !ok {
		return nil, apperrors.NewValidation("file", "csv header is missing the email column")
	}
	statusIdx, hasStatus := cols["subscription_status"]

	field := func(record []string, i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	result := &ImportResult{}
	seen := map[string]bool{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Invalid++
			continue
		}

		name := field(record, nameIdx)
		email := strings.ToLower(field(record, emailIdx))
		if name == "" || email == "" {
			result.Invalid++
			continue
		}
		if seen[email] {
			result.Skipped++
			continue
		}
		seen[email] = true

		status := model.Subscribed
		if hasStatus && strings.ToLower(field(record, statusIdx)) == string(model.Unsubscribed) {
			status = model.Unsubscribed
		}

		rec := &model.Recipient{Name: name, Email: email, SubscriptionStatus: status}
		if err := s.RecipientRepo.Create(rec); err != nil {
			if apperrors.IsDuplicateRecipient(err) {
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("insert recipient %s: %w", email, err)
		}
		result.Created++
	}

	s.Log.Info("recipient import finished",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("invalid", result.Invalid),
	)
	return result, nil
}

func (s *RecipientService) List() ([]model.Recipient, error) {
	return s.RecipientRepo.ListAll()
}

// internal/service/report_service.go
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/mailer"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/metrics"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
)

// ReportService builds the post-completion report for a campaign: a text
// summary in the mail body and the full delivery log set as a CSV attachment,
// sent to the operator address.
type ReportService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LogRepo      repository.DeliveryLogRepositoryInterface
	Mailer       mailer.AttachmentMailer
	AdminEmail   string
	Log          *zap.Logger
}

func (s *ReportService) Generate(ctx context.Context, campaignID int) error {
	if s.AdminEmail == "" {
		s.Log.Info("report skipped, no admin report address configured",
			zap.Int("campaign_id", campaignID))
		return nil
	}

	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return err
	}
	logs, err := s.LogRepo.ListByCampaign(campaignID)
	if err != nil {
		return fmt.Errorf("load delivery logs for campaign %d: %w", campaignID, err)
	}

	summary := buildSummary(campaign, logs)
	attachment, err := buildReportCSV(logs)
	if err != nil {
		return fmt.Errorf("build report csv for campaign %d: %w", campaignID, err)
	}

	subject := fmt.Sprintf("[Campaign Report] %s", campaign.Name)
	filename := fmt.Sprintf("campaign_%d_report.csv", campaign.ID)
	if err := s.Mailer.SendWithAttachment(ctx, s.AdminEmail, subject, summary, filename, attachment); err != nil {
		metrics.ReportsGeneratedTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("email report for campaign %d: %w", campaignID, err)
	}

	metrics.ReportsGeneratedTotal.WithLabelValues("sent").Inc()
	s.Log.Info("campaign report sent",
		zap.Int("campaign_id", campaignID),
		zap.String("to", s.AdminEmail),
		zap.Int("rows", len(logs)),
	)
	return nil
}

func buildSummary(campaign *model.Campaign, logs []model.DeliveryLog) string {
	sent, failed := 0, 0
	for _, l := range logs {
		if l.Status == model.DeliverySent {
			sent++
		} else {
			failed++
		}
	}

	lines := []string{
		fmt.Sprintf("Campaign: %s", campaign.Name),
		fmt.Sprintf("Subject: %s", campaign.Subject),
		fmt.Sprintf("Scheduled Time: %s", campaign.ScheduledTime.Format(time.RFC3339)),
		fmt.Sprintf("Status: %s", campaign.Status),
		"",
		fmt.Sprintf("Total: %d", len(logs)),
		fmt.Sprintf("Sent: %d", sent),
		fmt.Sprintf("Failed: %d", failed),
		"",
		"Detailed delivery logs:",
	}
	for _, l := range logs {
		lines = append(lines, fmt.Sprintf("%s | %s | %s | %s",
			l.SentAt.Format(time.RFC3339), l.RecipientEmail, l.Status, l.FailureReason))
	}
	return strings.Join(lines, "\n")
}

// buildReportCSV renders one row per delivery log. Commas inside failure
// reasons become semicolons so every row stays a single unquoted line.
func buildReportCSV(logs []model.DeliveryLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"recipient_email", "status", "failure_reason", "sent_at"}); err != nil {
		return nil, err
	}
	for _, l := range logs {
		reason := strings.ReplaceAll(l.FailureReason, ",", ";")
		row := []string{l.RecipientEmail, string(l.Status), reason, l.SentAt.Format(time.RFC3339)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

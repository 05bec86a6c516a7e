// internal/service/completion.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/metrics"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
)

type ReportGeneratorInterface interface {
	Generate(ctx context.Context, campaignID int) error
}

// CompletionDetector decides when a campaign is done: every snapshot entry
// has a delivery log. Workers call it after each accepted log write, so it
// must tolerate any number of concurrent invocations; the status CAS makes
// sure only one of them performs the transition and triggers the report.
type CompletionDetector struct {
	CampaignRepo repository.CampaignRepositoryInterface
	SnapshotRepo repository.CampaignRecipientRepositoryInterface
	LogRepo      repository.DeliveryLogRepositoryInterface
	Reports      ReportGeneratorInterface
	Log          *zap.Logger
}

func (d *CompletionDetector) CheckAndComplete(ctx context.Context, campaignID int) error {
	logged, err := d.LogRepo.CountByCampaign(campaignID)
	if err != nil {
		return fmt.Errorf("count delivery logs for campaign %d: %w", campaignID, err)
	}
	expected, err := d.SnapshotRepo.CountByCampaign(campaignID)
	if err != nil {
		return fmt.Errorf("count recipient snapshot for campaign %d: %w", campaignID, err)
	}
	if logged != expected {
		return nil
	}

	won, err := d.CampaignRepo.UpdateStatusFrom(campaignID, model.CampaignInProgress, model.CampaignCompleted)
	if err != nil {
		return fmt.Errorf("complete campaign %d: %w", campaignID, err)
	}
	if !won {
		// Another checker got there first; nothing left to do.
		return nil
	}

	metrics.CampaignsCompletedTotal.Inc()
	d.Log.Info("campaign completed",
		zap.Int("campaign_id", campaignID),
		zap.Int("recipients", expected),
	)

	if d.Reports != nil {
		// Report generation is best effort: a failure is operator-visible
		// in the logs but never rolls back completed status.
		if err := d.Reports.Generate(ctx, campaignID); err != nil {
			d.Log.Error("report generation failed",
				zap.Int("campaign_id", campaignID),
				zap.Error(err),
			)
		}
	}
	return nil
}

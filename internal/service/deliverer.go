// internal/service/deliverer.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/mailer"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/metrics"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/queue"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
)

// Deliverer executes one delivery task: render, send, log the outcome, check
// completion. Both queue modes run it: the in-process pool directly, the
// AMQP worker binary through its consume loop.
type Deliverer struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	RecipientRepo repository.RecipientRepositoryInterface
	LogRepo       repository.DeliveryLogRepositoryInterface
	Completion    *CompletionDetector
	Mailer        mailer.Mailer
	SendTimeout   time.Duration
	Log           *zap.Logger
}

// Execute returns an error only when the task was not processed: loads or
// the log write failed, or cancellation cut the attempt short mid-send. The
// AMQP consumer requeues on that. A failed send is a terminal outcome,
// logged as failed and returned as nil; delivery attempts are never retried.
func (d *Deliverer) Execute(ctx context.Context, task queue.Task) error {
	campaign, err := d.CampaignRepo.GetByID(task.CampaignID)
	if err != nil {
		return fmt.Errorf("load campaign %d: %w", task.CampaignID, err)
	}
	recipient, err := d.RecipientRepo.GetByID(task.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient %d: %w", task.RecipientID, err)
	}
	if recipient == nil {
		return fmt.Errorf("recipient %d not found for campaign %d", task.RecipientID, task.CampaignID)
	}

	body := PersonalizeBody(campaign.Body, recipient)

	sendCtx, cancel := context.WithTimeout(ctx, d.SendTimeout)
	start := time.Now()
	sendErr := d.Mailer.Send(sendCtx, recipient.Email, campaign.Subject, body)
	cancel()
	metrics.DeliverySendDuration.Observe(time.Since(start).Seconds())

	// An attempt cut short by caller cancellation is not an outcome. Leave
	// the pair unlogged so a re-dispatch retries it; a per-attempt timeout
	// keeps ctx.Err() nil and stays terminal.
	if sendErr != nil && ctx.Err() != nil {
		return fmt.Errorf("delivery of campaign %d recipient %d interrupted: %w",
			campaign.ID, recipient.ID, sendErr)
	}

	entry := &model.DeliveryLog{
		CampaignID:     campaign.ID,
		RecipientID:    recipient.ID,
		RecipientEmail: recipient.Email,
		Status:         model.DeliverySent,
		SentAt:         time.Now(),
	}
	if sendErr != nil {
		entry.Status = model.DeliveryFailed
		entry.FailureReason = sendErr.Error()
	}

	if err := d.LogRepo.Append(entry); err != nil {
		if apperrors.IsDuplicateDelivery(err) {
			// Lost the uniqueness race; the pair's first log stands and
			// this attempt's result is discarded.
			metrics.DuplicateDeliveriesTotal.Inc()
			d.Log.Debug("duplicate delivery discarded",
				zap.Int("campaign_id", campaign.ID),
				zap.Int("recipient_id", recipient.ID),
			)
			return nil
		}
		return fmt.Errorf("append delivery log for campaign %d recipient %d: %w",
			campaign.ID, recipient.ID, err)
	}

	metrics.DeliveriesTotal.WithLabelValues(string(entry.Status)).Inc()
	if sendErr != nil {
		d.Log.Warn("delivery failed",
			zap.Int("campaign_id", campaign.ID),
			zap.Int("recipient_id", recipient.ID),
			zap.String("email", recipient.Email),
			zap.Error(sendErr),
		)
	} else {
		d.Log.Info("delivery sent",
			zap.Int("campaign_id", campaign.ID),
			zap.Int("recipient_id", recipient.ID),
			zap.String("email", recipient.Email),
		)
	}

	return d.Completion.CheckAndComplete(ctx, campaign.ID)
}

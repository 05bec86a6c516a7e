// internal/service/dispatcher.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/queue"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
)

// Dispatcher fans a claimed campaign out into one delivery task per
// dispatchable snapshot entry.
type Dispatcher struct {
	SnapshotRepo repository.CampaignRecipientRepositoryInterface
	LogRepo      repository.DeliveryLogRepositoryInterface
	Queue        queue.Queue
	Completion   *CompletionDetector
	Log          *zap.Logger
}

// Dispatch publishes one task per dispatchable recipient that has no delivery
// log yet, then runs a single completion check. The pre-check makes
// re-dispatch after a crash exactly-once per recipient; the trailing check
// covers an empty snapshot and a re-dispatch where everything was already
// logged. Publishing is fire-and-forget: Dispatch never waits for a task to
// finish.
func (d *Dispatcher) Dispatch(ctx context.Context, campaignID int) error {
	entries, err := d.SnapshotRepo.ListDispatchable(campaignID)
	if err != nil {
		return fmt.Errorf("list dispatchable recipients for campaign %d: %w", campaignID, err)
	}

	submitted := 0
	for _, entry := range entries {
		logged, err := d.LogRepo.Exists(campaignID, entry.RecipientID)
		if err != nil {
			return fmt.Errorf("check delivery log for campaign %d recipient %d: %w",
				campaignID, entry.RecipientID, err)
		}
		if logged {
			continue
		}

		task := queue.Task{CampaignID: campaignID, RecipientID: entry.RecipientID}
		if err := d.Queue.Publish(queue.CampaignSends, task); err != nil {
			return fmt.Errorf("publish delivery task for campaign %d recipient %d: %w",
				campaignID, entry.RecipientID, err)
		}
		submitted++
	}

	d.Log.Info("campaign dispatched",
		zap.Int("campaign_id", campaignID),
		zap.Int("snapshot_size", len(entries)),
		zap.Int("tasks_submitted", submitted),
	)

	return d.Completion.CheckAndComplete(ctx, campaignID)
}

// internal/service/scheduler.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/metrics"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
)

// Scheduler periodically claims due campaigns and hands them to the
// Dispatcher. Ticks carry no state between them: due-ness is derived from the
// stored scheduled_time, the claim is atomic, and dispatch is idempotent per
// recipient, so a crash mid-tick leaves nothing to repair.
type Scheduler struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Dispatcher   *Dispatcher
	Interval     time.Duration
	ClaimLimit   int
	Log          *zap.Logger
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Log.Info("scheduler started", zap.Duration("interval", s.Interval))
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, time.Now())
		}
	}
}

// Tick claims campaigns due at now until none remain, dispatching each. The
// claim loop is capped so a pathological backlog cannot wedge one tick
// forever; the remainder is picked up next tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for i := 0; i < s.ClaimLimit; i++ {
		campaign, err := s.CampaignRepo.ClaimDue(now)
		if err != nil {
			s.Log.Error("claim failed", zap.Error(err))
			return
		}
		if campaign == nil {
			return
		}

		metrics.CampaignsClaimedTotal.Inc()
		s.Log.Info("campaign claimed",
			zap.Int("campaign_id", campaign.ID),
			zap.String("name", campaign.Name),
			zap.Time("scheduled_time", campaign.ScheduledTime),
		)

		if err := s.Dispatcher.Dispatch(ctx, campaign.ID); err != nil {
			s.Log.Error("dispatch failed",
				zap.Int("campaign_id", campaign.ID),
				zap.Error(err),
			)
		}
	}
}

// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
)

type CampaignService struct {
	CampaignRepo  repository.CampaignRepositoryInterface
	RecipientRepo repository.RecipientRepositoryInterface
	SnapshotRepo  repository.CampaignRecipientRepositoryInterface
	LogRepo       repository.DeliveryLogRepositoryInterface
	Dispatcher    *Dispatcher
	Log           *zap.Logger
}

type CreateCampaignInput struct {
	Name          string    `json:"name"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Status        string    `json:"status"`
}

// CampaignStats are the live aggregate counts for one campaign. Total is the
// dispatchable snapshot size, so it stays zero until the campaign is claimed.
type CampaignStats struct {
	TotalRecipients int `json:"total_recipients"`
	Sent            int `json:"sent"`
	Failed          int `json:"failed"`
}

type CampaignDetails struct {
	ID            int                  `json:"id"`
	Name          string               `json:"name"`
	Subject       string               `json:"subject"`
	Body          string               `json:"body"`
	ScheduledTime time.Time            `json:"scheduled_time"`
	Status        model.CampaignStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Stats         CampaignStats        `json:"stats"`
	Logs          []model.DeliveryLog  `json:"logs"`
}

type DashboardEntry struct {
	Campaign model.Campaign `json:"campaign"`
	Stats    CampaignStats  `json:"stats"`
}

// ====================== CRUD ======================

func (s *CampaignService) Create(in CreateCampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.NewValidation("name", "name is required")
	}
	if strings.TrimSpace(in.Subject) == "" {
		return nil, apperrors.NewValidation("subject", "subject is required")
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, apperrors.NewValidation("body", "body is required")
	}
	if in.ScheduledTime.IsZero() {
		return nil, apperrors.NewValidation("scheduled_time", "scheduled_time is required")
	}
	if !in.ScheduledTime.After(time.Now()) {
		return nil, apperrors.NewValidation("scheduled_time", "scheduled time must be in the future")
	}

	status := model.CampaignDraft
	switch in.Status {
	case "", string(model.CampaignDraft):
	case string(model.CampaignScheduled):
		status = model.CampaignScheduled
	default:
		return nil, apperrors.NewValidation("status", "status must be draft or scheduled")
	}

	c := &model.Campaign{
		Name:          in.Name,
		Subject:       in.Subject,
		Body:          in.Body,
		ScheduledTime: in.ScheduledTime,
		Status:        status,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}

	s.Log.Info("campaign created",
		zap.Int("campaign_id", c.ID),
		zap.String("name", c.Name),
		zap.String("status", string(c.Status)),
	)
	return c, nil
}

func (s *CampaignService) Get(id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(id)
}

// List fetches campaigns with pagination.
func (s *CampaignService) List(page, pageSize int, status model.CampaignStatus) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.List(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// ====================== Transitions ======================

func (s *CampaignService) Schedule(id int) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	ok, err := s.CampaignRepo.UpdateStatusFrom(id, model.CampaignDraft, model.CampaignScheduled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewInvalidTransition(id, string(campaign.Status), string(model.CampaignScheduled))
	}

	campaign.Status = model.CampaignScheduled
	s.Log.Info("campaign scheduled",
		zap.Int("campaign_id", id),
		zap.Time("scheduled_time", campaign.ScheduledTime),
	)
	return campaign, nil
}

func (s *CampaignService) Cancel(id int) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !campaign.Status.CanTransitionTo(model.CampaignCancelled) {
		return nil, apperrors.NewInvalidTransition(id, string(campaign.Status), string(model.CampaignCancelled))
	}

	ok, err := s.CampaignRepo.UpdateStatusFrom(id, campaign.Status, model.CampaignCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Status moved under us (e.g. the scheduler claimed it); reload so
		// the error names the state that actually blocked the cancel.
		fresh, ferr := s.CampaignRepo.GetByID(id)
		if ferr != nil {
			return nil, ferr
		}
		return nil, apperrors.NewInvalidTransition(id, string(fresh.Status), string(model.CampaignCancelled))
	}

	campaign.Status = model.CampaignCancelled
	s.Log.Info("campaign cancelled", zap.Int("campaign_id", id))
	return campaign, nil
}

// Redispatch re-runs dispatch for an in_progress campaign. Recipients already
// logged are skipped, so this is the recovery path after a crash dropped some
// queued tasks.
func (s *CampaignService) Redispatch(ctx context.Context, id int) error {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return err
	}
	if campaign.Status != model.CampaignInProgress {
		return apperrors.NewInvalidTransition(id, string(campaign.Status), string(model.CampaignInProgress))
	}
	return s.Dispatcher.Dispatch(ctx, id)
}

// ====================== Read views ======================

func (s *CampaignService) Stats(id int) (*CampaignStats, error) {
	if _, err := s.CampaignRepo.GetByID(id); err != nil {
		return nil, err
	}
	return s.stats(id)
}

func (s *CampaignService) stats(id int) (*CampaignStats, error) {
	total, err := s.SnapshotRepo.CountByCampaign(id)
	if err != nil {
		return nil, err
	}
	counts, err := s.LogRepo.CountByStatus(id)
	if err != nil {
		return nil, err
	}
	return &CampaignStats{
		TotalRecipients: total,
		Sent:            counts[model.DeliverySent],
		Failed:          counts[model.DeliveryFailed],
	}, nil
}

func (s *CampaignService) Details(id int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(id)
	if err != nil {
		return nil, err
	}
	logs, err := s.LogRepo.ListByCampaign(id)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:            campaign.ID,
		Name:          campaign.Name,
		Subject:       campaign.Subject,
		Body:          campaign.Body,
		ScheduledTime: campaign.ScheduledTime,
		Status:        campaign.Status,
		CreatedAt:     campaign.CreatedAt,
		UpdatedAt:     campaign.UpdatedAt,
		Stats:         *stats,
		Logs:          logs,
	}, nil
}

// Dashboard lists every campaign with its aggregate counts.
func (s *CampaignService) Dashboard() ([]DashboardEntry, error) {
	campaigns, err := s.CampaignRepo.ListAll()
	if err != nil {
		return nil, err
	}

	entries := make([]DashboardEntry, 0, len(campaigns))
	for _, c := range campaigns {
		stats, err := s.stats(c.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DashboardEntry{Campaign: *c, Stats: *stats})
	}
	return entries, nil
}

// Preview renders the personalized body for one recipient without sending
// anything. An override body, when given, replaces the stored one.
func (s *CampaignService) Preview(campaignID, recipientID int, overrideBody *string) (string, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return "", err
	}
	recipient, err := s.RecipientRepo.GetByID(recipientID)
	if err != nil {
		return "", err
	}
	if recipient == nil {
		return "", apperrors.NewRecipientNotFound(recipientID)
	}

	body := campaign.Body
	if overrideBody != nil && strings.TrimSpace(*overrideBody) != "" {
		body = *overrideBody
	}
	if strings.TrimSpace(body) == "" {
		return "", apperrors.NewValidation("body", "body cannot be empty")
	}

	return PersonalizeBody(body, recipient), nil
}

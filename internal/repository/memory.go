package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
)

// MemoryStore is an in-process implementation of every repository interface,
// used by tests and by STORE=memory development mode. One mutex guards the
// whole store, which makes ClaimDue and Append naturally atomic with the same
// semantics the Postgres constraints enforce.
type MemoryStore struct {
	mu sync.Mutex

	campaigns  map[int]*model.Campaign
	recipients map[int]*model.Recipient
	emailIndex map[string]int

	snapshots   map[int][]model.CampaignRecipient
	snapshotSet map[[2]int]bool

	logs   map[int][]model.DeliveryLog
	logSet map[[2]int]bool

	campaignSeq  int
	recipientSeq int
	snapshotSeq  int
	logSeq       int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns:   map[int]*model.Campaign{},
		recipients:  map[int]*model.Recipient{},
		emailIndex:  map[string]int{},
		snapshots:   map[int][]model.CampaignRecipient{},
		snapshotSet: map[[2]int]bool{},
		logs:        map[int][]model.DeliveryLog{},
		logSet:      map[[2]int]bool{},
	}
}

func (s *MemoryStore) Campaigns() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{s: s}
}

func (s *MemoryStore) Recipients() *MemoryRecipientRepository {
	return &MemoryRecipientRepository{s: s}
}

func (s *MemoryStore) CampaignRecipients() *MemoryCampaignRecipientRepository {
	return &MemoryCampaignRecipientRepository{s: s}
}

func (s *MemoryStore) DeliveryLogs() *MemoryDeliveryLogRepository {
	return &MemoryDeliveryLogRepository{s: s}
}

// ====================== Campaigns ======================

type MemoryCampaignRepository struct {
	s *MemoryStore
}

func (r *MemoryCampaignRepository) Create(c *model.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	r.s.campaignSeq++
	c.ID = r.s.campaignSeq

	stored := *c
	r.s.campaigns[c.ID] = &stored
	return nil
}

func (r *MemoryCampaignRepository) GetByID(id int) (*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, apperrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryCampaignRepository) List(offset, limit int, status model.CampaignStatus) ([]*model.Campaign, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.sortedLocked(status)
	total := len(all)

	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]*model.Campaign, 0, end-offset)
	for _, c := range all[offset:end] {
		cp := *c
		page = append(page, &cp)
	}
	return page, total, nil
}

func (r *MemoryCampaignRepository) ListAll() ([]*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.sortedLocked("")
	out := make([]*model.Campaign, 0, len(all))
	for _, c := range all {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

// sortedLocked returns campaigns newest-first, optionally filtered by status.
func (r *MemoryCampaignRepository) sortedLocked(status model.CampaignStatus) []*model.Campaign {
	all := make([]*model.Campaign, 0, len(r.s.campaigns))
	for _, c := range r.s.campaigns {
		if status != "" && c.Status != status {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all
}

func (r *MemoryCampaignRepository) UpdateStatusFrom(id int, from, to model.CampaignStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.campaigns[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryCampaignRepository) ClaimDue(now time.Time) (*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var due *model.Campaign
	for _, c := range r.s.campaigns {
		if c.Status != model.CampaignScheduled || c.ScheduledTime.After(now) {
			continue
		}
		if due == nil ||
			c.ScheduledTime.Before(due.ScheduledTime) ||
			(c.ScheduledTime.Equal(due.ScheduledTime) && c.ID < due.ID) {
			due = c
		}
	}
	if due == nil {
		return nil, nil
	}

	due.Status = model.CampaignInProgress
	due.UpdatedAt = now

	ids := make([]int, 0, len(r.s.recipients))
	for id := range r.s.recipients {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		rec := r.s.recipients[id]
		if rec.SubscriptionStatus != model.Subscribed {
			continue
		}
		key := [2]int{due.ID, rec.ID}
		if r.s.snapshotSet[key] {
			continue
		}
		r.s.snapshotSeq++
		r.s.snapshotSet[key] = true
		r.s.snapshots[due.ID] = append(r.s.snapshots[due.ID], model.CampaignRecipient{
			ID:             r.s.snapshotSeq,
			CampaignID:     due.ID,
			RecipientID:    rec.ID,
			StatusSnapshot: rec.SubscriptionStatus,
			CreatedAt:      now,
		})
	}

	cp := *due
	return &cp, nil
}

// ====================== Recipients ======================

type MemoryRecipientRepository struct {
	s *MemoryStore
}

func (r *MemoryRecipientRepository) Create(rec *model.Recipient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.emailIndex[rec.Email]; exists {
		return apperrors.NewDuplicateRecipient(rec.Email)
	}
	rec.CreatedAt = time.Now()
	if rec.SubscriptionStatus == "" {
		rec.SubscriptionStatus = model.Subscribed
	}
	r.s.recipientSeq++
	rec.ID = r.s.recipientSeq

	stored := *rec
	r.s.recipients[rec.ID] = &stored
	r.s.emailIndex[rec.Email] = rec.ID
	return nil
}

func (r *MemoryRecipientRepository) GetByID(id int) (*model.Recipient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.recipients[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *MemoryRecipientRepository) GetByEmail(email string) (*model.Recipient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emailIndex[email]
	if !ok {
		return nil, nil
	}
	cp := *r.s.recipients[id]
	return &cp, nil
}

func (r *MemoryRecipientRepository) ListAll() ([]model.Recipient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]int, 0, len(r.s.recipients))
	for id := range r.s.recipients {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]model.Recipient, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.s.recipients[id])
	}
	return out, nil
}

// SetSubscriptionStatus flips a recipient's status in place. Exposed for
// development mode and for exercising snapshot decoupling.
func (r *MemoryRecipientRepository) SetSubscriptionStatus(id int, status model.SubscriptionStatus) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rec, ok := r.s.recipients[id]; ok {
		rec.SubscriptionStatus = status
	}
}

// ====================== Campaign recipients ======================

type MemoryCampaignRecipientRepository struct {
	s *MemoryStore
}

func (r *MemoryCampaignRecipientRepository) ListByCampaign(campaignID int) ([]model.CampaignRecipient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return append([]model.CampaignRecipient{}, r.s.snapshots[campaignID]...), nil
}

func (r *MemoryCampaignRecipientRepository) ListDispatchable(campaignID int) ([]model.CampaignRecipient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []model.CampaignRecipient{}
	for _, e := range r.s.snapshots[campaignID] {
		if e.StatusSnapshot == model.Subscribed {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *MemoryCampaignRecipientRepository) CountByCampaign(campaignID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return len(r.s.snapshots[campaignID]), nil
}

// ====================== Delivery logs ======================

type MemoryDeliveryLogRepository struct {
	s *MemoryStore
}

func (r *MemoryDeliveryLogRepository) Append(l *model.DeliveryLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := [2]int{l.CampaignID, l.RecipientID}
	if r.s.logSet[key] {
		return apperrors.NewDuplicateDelivery(l.CampaignID, l.RecipientID)
	}
	if l.SentAt.IsZero() {
		l.SentAt = time.Now()
	}
	r.s.logSeq++
	l.ID = r.s.logSeq
	r.s.logSet[key] = true
	r.s.logs[l.CampaignID] = append(r.s.logs[l.CampaignID], *l)
	return nil
}

func (r *MemoryDeliveryLogRepository) Exists(campaignID, recipientID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.logSet[[2]int{campaignID, recipientID}], nil
}

func (r *MemoryDeliveryLogRepository) ListByCampaign(campaignID int) ([]model.DeliveryLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return append([]model.DeliveryLog{}, r.s.logs[campaignID]...), nil
}

func (r *MemoryDeliveryLogRepository) CountByCampaign(campaignID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return len(r.s.logs[campaignID]), nil
}

func (r *MemoryDeliveryLogRepository) CountByStatus(campaignID int) (map[model.DeliveryStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := map[model.DeliveryStatus]int{model.DeliverySent: 0, model.DeliveryFailed: 0}
	for _, l := range r.s.logs[campaignID] {
		stats[l.Status]++
	}
	return stats, nil
}

var (
	_ CampaignRepositoryInterface          = (*MemoryCampaignRepository)(nil)
	_ RecipientRepositoryInterface         = (*MemoryRecipientRepository)(nil)
	_ CampaignRecipientRepositoryInterface = (*MemoryCampaignRecipientRepository)(nil)
	_ DeliveryLogRepositoryInterface       = (*MemoryDeliveryLogRepository)(nil)
)

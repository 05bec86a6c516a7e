package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/queue"
)

func TestDelivererWritesSentLog(t *testing.T) {
	p := newPipeline(t)

	r := p.addRecipient(t, "Alice", "alice@example.com", model.Subscribed)
	c := p.addScheduledCampaign(t, "hello", time.Now().Add(time.Hour))

	err := p.deliverer.Execute(context.Background(), queue.Task{CampaignID: c.ID, RecipientID: r.ID})
	require.NoError(t, err)

	logs, err := p.store.DeliveryLogs().ListByCampaign(c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.DeliverySent, logs[0].Status)
	assert.Equal(t, "alice@example.com", logs[0].RecipientEmail)
	assert.Empty(t, logs[0].FailureReason)
	assert.False(t, logs[0].SentAt.IsZero())

	sent := p.mailsTo("alice@example.com")
	require.Len(t, sent, 1)
	assert.Equal(t, "Hello Alice, this goes to alice@example.com.", sent[0].Body)
}

func TestDelivererRecordsFailureReason(t *testing.T) {
	p := newPipeline(t)

	r := p.addRecipient(t, "Bob", "bob@example.com", model.Subscribed)
	c := p.addScheduledCampaign(t, "hello", time.Now().Add(time.Hour))
	p.relay.FailFor["bob@example.com"] = "connection refused"

	// A failed send is a terminal outcome, not a processing error.
	err := p.deliverer.Execute(context.Background(), queue.Task{CampaignID: c.ID, RecipientID: r.ID})
	require.NoError(t, err)

	logs, err := p.store.DeliveryLogs().ListByCampaign(c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.DeliveryFailed, logs[0].Status)
	assert.Equal(t, "connection refused", logs[0].FailureReason)
	assert.Empty(t, p.mailsTo("bob@example.com"))
}

func TestDelivererTimesOutSlowSend(t *testing.T) {
	p := newPipeline(t)
	p.relay.Delay = 100 * time.Millisecond
	p.deliverer.SendTimeout = 10 * time.Millisecond

	r := p.addRecipient(t, "Slow", "slow@example.com", model.Subscribed)
	c := p.addScheduledCampaign(t, "hello", time.Now().Add(time.Hour))

	err := p.deliverer.Execute(context.Background(), queue.Task{CampaignID: c.ID, RecipientID: r.ID})
	require.NoError(t, err)

	logs, err := p.store.DeliveryLogs().ListByCampaign(c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.DeliveryFailed, logs[0].Status)
	assert.Contains(t, logs[0].FailureReason, "context deadline exceeded")
}

func TestDelivererShutdownAbortLeavesPairUnlogged(t *testing.T) {
	p := newPipeline(t)
	p.relay.Delay = 50 * time.Millisecond

	r := p.addRecipient(t, "Alice", "alice@example.com", model.Subscribed)
	c := p.addScheduledCampaign(t, "hello", time.Now().Add(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// An attempt aborted by shutdown comes back as unprocessed, not as a
	// terminal failure that re-dispatch would skip forever.
	err := p.deliverer.Execute(ctx, queue.Task{CampaignID: c.ID, RecipientID: r.ID})
	require.Error(t, err)

	count, err := p.store.DeliveryLogs().CountByCampaign(c.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, p.mailsTo("alice@example.com"))

	// After restart the same task goes through untouched by the aborted run.
	p.relay.Delay = 0
	err = p.deliverer.Execute(context.Background(), queue.Task{CampaignID: c.ID, RecipientID: r.ID})
	require.NoError(t, err)

	logs, err := p.store.DeliveryLogs().ListByCampaign(c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.DeliverySent, logs[0].Status)
}

func TestDelivererDiscardsDuplicateResult(t *testing.T) {
	p := newPipeline(t)

	r := p.addRecipient(t, "Alice", "alice@example.com", model.Subscribed)
	c := p.addScheduledCampaign(t, "hello", time.Now().Add(time.Hour))

	require.NoError(t, p.store.DeliveryLogs().Append(&model.DeliveryLog{
		CampaignID:     c.ID,
		RecipientID:    r.ID,
		RecipientEmail: r.Email,
		Status:         model.DeliveryFailed,
		FailureReason:  "earlier attempt",
	}))

	// The second attempt sends but loses the log race; its result vanishes
	// without an error.
	err := p.deliverer.Execute(context.Background(), queue.Task{CampaignID: c.ID, RecipientID: r.ID})
	require.NoError(t, err)

	logs, err := p.store.DeliveryLogs().ListByCampaign(c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.DeliveryFailed, logs[0].Status)
	assert.Equal(t, "earlier attempt", logs[0].FailureReason)
}

func TestDelivererCompletesLastRecipient(t *testing.T) {
	p := newPipeline(t)
	now := time.Now()

	r := p.addRecipient(t, "Alice", "alice@example.com", model.Subscribed)
	c := p.addScheduledCampaign(t, "one and done", now.Add(-time.Minute))

	_, err := p.store.Campaigns().ClaimDue(now)
	require.NoError(t, err)

	err = p.deliverer.Execute(context.Background(), queue.Task{CampaignID: c.ID, RecipientID: r.ID})
	require.NoError(t, err)

	assert.Equal(t, model.CampaignCompleted, p.status(t, c.ID))
	assert.Len(t, p.mailsTo(adminEmail), 1)
}

func TestDelivererUnknownCampaignIsRetryable(t *testing.T) {
	p := newPipeline(t)

	err := p.deliverer.Execute(context.Background(), queue.Task{CampaignID: 404, RecipientID: 1})
	require.Error(t, err)
	assert.True(t, apperrors.IsCampaignNotFound(err))

	count, err := p.store.DeliveryLogs().CountByCampaign(404)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDelivererUnknownRecipientIsRetryable(t *testing.T) {
	p := newPipeline(t)
	c := p.addScheduledCampaign(t, "hello", time.Now().Add(time.Hour))

	err := p.deliverer.Execute(context.Background(), queue.Task{CampaignID: c.ID, RecipientID: 404})
	require.Error(t, err)

	count, err := p.store.DeliveryLogs().CountByCampaign(c.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

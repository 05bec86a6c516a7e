package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/queue"
)

func TestInMemoryPublishWithoutSubscriberFails(t *testing.T) {
	q := queue.NewInMemoryQueue(zap.NewNop())

	err := q.Publish(queue.CampaignSends, queue.Task{CampaignID: 1, RecipientID: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subscribers")
}

func TestInMemoryPublishDeliversToSubscriber(t *testing.T) {
	q := queue.NewInMemoryQueue(zap.NewNop())

	var got []queue.Task
	err := q.Subscribe(context.Background(), queue.CampaignSends, func(task queue.Task) error {
		got = append(got, task)
		return nil
	})
	require.NoError(t, err)

	tasks := []queue.Task{
		{CampaignID: 1, RecipientID: 1},
		{CampaignID: 1, RecipientID: 2},
		{CampaignID: 2, RecipientID: 1},
	}
	for _, task := range tasks {
		require.NoError(t, q.Publish(queue.CampaignSends, task))
	}

	assert.Equal(t, tasks, got)
}

func TestInMemoryHandlerErrorDoesNotFailPublish(t *testing.T) {
	q := queue.NewInMemoryQueue(zap.NewNop())

	calls := 0
	require.NoError(t, q.Subscribe(context.Background(), queue.CampaignSends, func(queue.Task) error {
		calls++
		return errors.New("executor exploded")
	}))

	// Task processing errors stay with the handler; Publish already did its job.
	assert.NoError(t, q.Publish(queue.CampaignSends, queue.Task{CampaignID: 1, RecipientID: 1}))
	assert.Equal(t, 1, calls)
}

func TestInMemoryQueuesAreIndependent(t *testing.T) {
	q := queue.NewInMemoryQueue(zap.NewNop())

	var got []queue.Task
	require.NoError(t, q.Subscribe(context.Background(), "other_queue", func(task queue.Task) error {
		got = append(got, task)
		return nil
	}))

	err := q.Publish(queue.CampaignSends, queue.Task{CampaignID: 1, RecipientID: 1})
	require.Error(t, err)
	assert.Empty(t, got)
}

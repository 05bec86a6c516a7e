package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/mailer"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/service"
)

func newReportService(admin string) (*service.ReportService, *repository.MemoryStore, *mailer.Mock) {
	store := repository.NewMemoryStore()
	relay := mailer.NewMock()
	svc := &service.ReportService{
		CampaignRepo: store.Campaigns(),
		LogRepo:      store.DeliveryLogs(),
		Mailer:       relay,
		AdminEmail:   admin,
		Log:          zap.NewNop(),
	}
	return svc, store, relay
}

func seedReportData(t *testing.T, store *repository.MemoryStore) *model.Campaign {
	t.Helper()
	c := &model.Campaign{
		Name:          "product update",
		Subject:       "What changed",
		Body:          "b",
		ScheduledTime: time.Now().Add(-time.Hour),
		Status:        model.CampaignCompleted,
	}
	require.NoError(t, store.Campaigns().Create(c))

	logs := []model.DeliveryLog{
		{CampaignID: c.ID, RecipientID: 1, RecipientEmail: "a@example.com", Status: model.DeliverySent},
		{CampaignID: c.ID, RecipientID: 2, RecipientEmail: "b@example.com", Status: model.DeliverySent},
		{CampaignID: c.ID, RecipientID: 3, RecipientEmail: "c@example.com", Status: model.DeliveryFailed,
			FailureReason: "550 rejected, mailbox full"},
	}
	for i := range logs {
		require.NoError(t, store.DeliveryLogs().Append(&logs[i]))
	}
	return c
}

func TestGenerateSendsSummaryAndCSV(t *testing.T) {
	svc, store, relay := newReportService("ops@example.com")
	c := seedReportData(t, store)

	require.NoError(t, svc.Generate(context.Background(), c.ID))

	sent := relay.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "ops@example.com", msg.To)
	assert.Equal(t, "[Campaign Report] product update", msg.Subject)
	assert.Equal(t, fmt.Sprintf("campaign_%d_report.csv", c.ID), msg.Filename)

	assert.Contains(t, msg.Body, "Campaign: product update")
	assert.Contains(t, msg.Body, "Subject: What changed")
	assert.Contains(t, msg.Body, "Status: completed")
	assert.Contains(t, msg.Body, "Total: 3")
	assert.Contains(t, msg.Body, "Sent: 2")
	assert.Contains(t, msg.Body, "Failed: 1")
	assert.Contains(t, msg.Body, "Detailed delivery logs:")
	assert.Contains(t, msg.Body, "| c@example.com | failed | 550 rejected, mailbox full")

	rows, err := csv.NewReader(bytes.NewReader(msg.Attachment)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"recipient_email", "status", "failure_reason", "sent_at"}, rows[0])
	assert.Equal(t, "a@example.com", rows[1][0])
	assert.Equal(t, "sent", rows[1][1])

	// Commas in failure reasons become semicolons in the CSV.
	assert.Equal(t, "550 rejected; mailbox full", rows[3][2])

	// sent_at is a parseable timestamp.
	_, err = time.Parse(time.RFC3339, rows[1][3])
	assert.NoError(t, err)
}

func TestGenerateSkipsWithoutAdminAddress(t *testing.T) {
	svc, store, relay := newReportService("")
	c := seedReportData(t, store)

	require.NoError(t, svc.Generate(context.Background(), c.ID))
	assert.Empty(t, relay.Sent())
}

func TestGenerateUnknownCampaign(t *testing.T) {
	svc, _, relay := newReportService("ops@example.com")

	err := svc.Generate(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, apperrors.IsCampaignNotFound(err))
	assert.Empty(t, relay.Sent())
}

func TestGenerateSurfacesMailerFailure(t *testing.T) {
	svc, store, relay := newReportService("ops@example.com")
	c := seedReportData(t, store)
	relay.FailFor["ops@example.com"] = "connection reset"

	err := svc.Generate(context.Background(), c.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGenerateEmptyCampaignReport(t *testing.T) {
	svc, store, relay := newReportService("ops@example.com")
	c := &model.Campaign{
		Name:          "nobody home",
		Subject:       "s",
		Body:          "b",
		ScheduledTime: time.Now().Add(-time.Hour),
		Status:        model.CampaignCompleted,
	}
	require.NoError(t, store.Campaigns().Create(c))

	require.NoError(t, svc.Generate(context.Background(), c.ID))

	sent := relay.Sent()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "Total: 0")

	rows, err := csv.NewReader(bytes.NewReader(sent[0].Attachment)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

package service_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/repository"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/service"
)

func newRecipientService() (*service.RecipientService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return &service.RecipientService{RecipientRepo: store.Recipients(), Log: zap.NewNop()}, store
}

func TestImportCSV(t *testing.T) {
	svc, store := newRecipientService()

	csv := strings.Join([]string{
		"Name, Email ,subscription_status",
		"Alice,ALICE@Example.com,subscribed",
		"Bob,bob@example.com,unsubscribed",
		"Carol,carol@example.com,vip",
		",missing.name@example.com,subscribed",
		"No Email,,subscribed",
		"Alice Again,alice@example.com,subscribed",
		"Dave,dave@example.com",
	}, "\n")

	result, err := svc.ImportCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Invalid)

	// Emails are normalized to lower case on the way in.
	alice, err := store.Recipients().GetByEmail("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, model.Subscribed, alice.SubscriptionStatus)

	bob, err := store.Recipients().GetByEmail("bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, model.Unsubscribed, bob.SubscriptionStatus)

	// Unknown statuses default to subscribed, as does a missing field.
	carol, err := store.Recipients().GetByEmail("carol@example.com")
	require.NoError(t, err)
	require.NotNil(t, carol)
	assert.Equal(t, model.Subscribed, carol.SubscriptionStatus)

	dave, err := store.Recipients().GetByEmail("dave@example.com")
	require.NoError(t, err)
	require.NotNil(t, dave)
	assert.Equal(t, model.Subscribed, dave.SubscriptionStatus)
}

func TestImportCSVSkipsExistingEmails(t *testing.T) {
	svc, store := newRecipientService()
	require.NoError(t, store.Recipients().Create(&model.Recipient{Name: "Bob", Email: "bob@example.com"}))

	csv := "name,email\nBob Again,bob@example.com\nNew Person,new@example.com\n"
	result, err := svc.ImportCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Invalid)

	// The original row is untouched by the duplicate.
	bob, err := store.Recipients().GetByEmail("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bob", bob.Name)
}

func TestImportCSVEmptyFile(t *testing.T) {
	svc, _ := newRecipientService()

	_, err := svc.ImportCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "empty")
}

func TestImportCSVMissingColumns(t *testing.T) {
	svc, _ := newRecipientService()

	_, err := svc.ImportCSV(strings.NewReader("name,phone\nAlice,123\n"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "email")

	_, err = svc.ImportCSV(strings.NewReader("email\nalice@example.com\n"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "name")
}

func TestImportCSVWithoutStatusColumn(t *testing.T) {
	svc, store := newRecipientService()

	result, err := svc.ImportCSV(strings.NewReader("name,email\nAlice,alice@example.com\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	alice, err := store.Recipients().GetByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.Subscribed, alice.SubscriptionStatus)
}

func TestImportCSVHeaderOnly(t *testing.T) {
	svc, _ := newRecipientService()

	result, err := svc.ImportCSV(strings.NewReader("name,email,subscription_status\n"))
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Invalid)
}

func TestRecipientList(t *testing.T) {
	svc, store := newRecipientService()
	require.NoError(t, store.Recipients().Create(&model.Recipient{Name: "Alice", Email: "a@example.com"}))
	require.NoError(t, store.Recipients().Create(&model.Recipient{Name: "Bob", Email: "b@example.com"}))

	recipients, err := svc.List()
	require.NoError(t, err)
	require.Len(t, recipients, 2)
	assert.Equal(t, "a@example.com", recipients[0].Email)
	assert.Equal(t, "b@example.com", recipients[1].Email)
}

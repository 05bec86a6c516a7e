package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	got := service.RenderTemplate("Hello {first}, meet {second}.", map[string]string{
		"first":  "Ann",
		"second": "Ben",
	})
	assert.Equal(t, "Hello Ann, meet Ben.", got)

	// Unknown placeholders pass through untouched.
	got = service.RenderTemplate("Hi {name}, your code is {code}.", map[string]string{"name": "Ann"})
	assert.Equal(t, "Hi Ann, your code is {code}.", got)

	// Repeated placeholders are all replaced.
	got = service.RenderTemplate("{x} and {x}", map[string]string{"x": "again"})
	assert.Equal(t, "again and again", got)
}

func TestPersonalizeBody(t *testing.T) {
	r := &model.Recipient{Name: "Alice", Email: "alice@example.com"}

	got := service.PersonalizeBody("Dear {name}, this was sent to {email}.", r)
	assert.Equal(t, "Dear Alice, this was sent to alice@example.com.", got)

	got = service.PersonalizeBody("No placeholders here.", r)
	assert.Equal(t, "No placeholders here.", got)
}

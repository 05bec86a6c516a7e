// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
)

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// PersonalizeBody renders a campaign body for one recipient. Supported
// placeholders: {name}, {email}.
func PersonalizeBody(body string, r *model.Recipient) string {
	return RenderTemplate(body, map[string]string{
		"name":  r.Name,
		"email": r.Email,
	})
}

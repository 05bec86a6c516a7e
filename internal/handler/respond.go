// internal/handler/respond.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the typed error taxonomy onto HTTP statuses: validation
// 400, not found 404, invalid transition 409, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsCampaignNotFound(err), apperrors.IsRecipientNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsInvalidTransition(err):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

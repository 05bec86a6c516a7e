// internal/handler/recipient_handler.go
package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/service"
)

const maxUploadBytes = 10 << 20

type RecipientHandler struct {
	Service *service.RecipientService
	Log     *zap.Logger
}

// Upload imports recipients from a multipart CSV file under the "file" field.
func (h *RecipientHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperrors.NewValidation("file", "invalid multipart form"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.NewValidation("file", "file field is required"))
		return
	}
	defer file.Close()

	result, err := h.Service.ImportCSV(file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RecipientHandler) List(w http.ResponseWriter, r *http.Request) {
	recipients, err := h.Service.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": recipients})
}

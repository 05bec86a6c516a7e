// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/babarakshay2019/bulk-email-campaign-system/internal/apperrors"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/model"
	"github.com/babarakshay2019/bulk-email-campaign-system/internal/service"
)

// CampaignHandler holds the dependencies for campaign-related HTTP handlers
type CampaignHandler struct {
	Service *service.CampaignService
	Log     *zap.Logger
}

func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload service.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid request body"))
		return
	}

	campaign, err := h.Service.Create(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	status := model.CampaignStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, apperrors.NewValidation("status", "unknown status filter"))
		return
	}

	campaigns, pagination, err := h.Service.List(page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("id", "invalid campaign id"))
		return
	}

	details, err := h.Service.Details(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *CampaignHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("id", "invalid campaign id"))
		return
	}

	stats, err := h.Service.Stats(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *CampaignHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("id", "invalid campaign id"))
		return
	}

	campaign, err := h.Service.Schedule(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("id", "invalid campaign id"))
		return
	}

	campaign, err := h.Service.Cancel(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// Dispatch re-submits delivery tasks for an in_progress campaign, skipping
// recipients that already have a log entry.
func (h *CampaignHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("id", "invalid campaign id"))
		return
	}

	if err := h.Service.Redispatch(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"campaign_id": id,
		"status":      "dispatching",
	})
}

func (h *CampaignHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("id", "invalid campaign id"))
		return
	}

	var payload struct {
		RecipientID int     `json:"recipient_id"`
		Body        *string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apperrors.NewValidation("body", "invalid request body"))
		return
	}

	rendered, err := h.Service.Preview(id, payload.RecipientID, payload.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rendered_body": rendered,
		"recipient_id":  payload.RecipientID,
	})
}

func (h *CampaignHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Dashboard()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaigns": entries})
}

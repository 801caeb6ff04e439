package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "payssd/internal/api/context"
	"payssd/internal/pkg/errors"
	"payssd/internal/platform/auth"
	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

var validEvents = map[string]bool{
	models.EventPaymentMatched:          true,
	models.EventPaymentConfirmed:        true,
	models.EventPaymentRejected:         true,
	models.EventSubscriptionActivated:   true,
	models.EventSubscriptionRenewed:     true,
	models.EventSubscriptionPaused:      true,
	models.EventSubscriptionResumed:     true,
	models.EventSubscriptionCancelled:   true,
	models.EventSubscriptionReactivated: true,
}

type WebhookHandler struct {
	webhooks *repositories.WebhookRepository
}

func NewWebhookHandler(webhooks *repositories.WebhookRepository) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

type CreateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if !validWebhookURL(req.URL) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Webhook URL must be a valid http(s) URL", nil)
		return
	}
	if len(req.Events) == 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "At least one event is required", nil)
		return
	}
	for _, event := range req.Events {
		if !validEvents[event] {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown event type: "+event, nil)
			return
		}
	}

	webhook := &models.Webhook{
		MerchantID: claims.UserID,
		URL:        req.URL,
		Secret:     "whsec_" + uuid.NewString(),
		Events:     req.Events,
		IsActive:   true,
	}

	if err := h.webhooks.Create(webhook); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create webhook", nil)
		return
	}

	// The secret is included here and only here; list and get responses
	// return a redacted copy.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(webhook)
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	webhooks, err := h.webhooks.ListByMerchant(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	for _, wh := range webhooks {
		wh.Secret = ""
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"webhooks": webhooks})
}

func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	webhook, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}
	webhook.Secret = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(webhook)
}

type UpdateWebhookRequest struct {
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	IsActive *bool    `json:"is_active"`
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	webhook, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}

	var req UpdateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.URL != "" {
		if !validWebhookURL(req.URL) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Webhook URL must be a valid http(s) URL", nil)
			return
		}
		webhook.URL = req.URL
	}
	if len(req.Events) > 0 {
		for _, event := range req.Events {
			if !validEvents[event] {
				errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown event type: "+event, nil)
				return
			}
		}
		webhook.Events = req.Events
	}
	if req.IsActive != nil {
		webhook.IsActive = *req.IsActive
	}

	if err := h.webhooks.Update(webhook); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update webhook", nil)
		return
	}

	webhook.Secret = ""
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(webhook)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	webhook, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}

	if err := h.webhooks.Delete(claims.UserID, webhook.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete webhook", nil)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	webhook, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	deliveries, err := h.webhooks.ListDeliveries(webhook.ID, limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"deliveries": deliveries})
}

func (h *WebhookHandler) getOwned(w http.ResponseWriter, r *http.Request, merchantID string) (*models.Webhook, bool) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	webhook, err := h.webhooks.GetByID(merchantID, params.ByName("webhook_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return nil, false
	}
	if webhook == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Webhook not found", nil)
		return nil, false
	}
	return webhook, true
}

func validWebhookURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

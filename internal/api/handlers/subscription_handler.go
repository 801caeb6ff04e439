package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "payssd/internal/api/context"
	"payssd/internal/engine/subscriptions"
	apiErrors "payssd/internal/pkg/errors"
	"payssd/internal/platform/audit"
	"payssd/internal/platform/auth"
)

type SubscriptionHandler struct {
	subscriptions *subscriptions.Service
	audit         *audit.Logger
}

func NewSubscriptionHandler(svc *subscriptions.Service, auditLogger *audit.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: svc, audit: auditLogger}
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	status := r.URL.Query().Get("status")
	limit, offset := pagination(r)

	list, err := h.subscriptions.List(claims.UserID, status, limit, offset)
	if err != nil {
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"subscriptions": list})
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	sub, err := h.subscriptions.Get(claims.UserID, params.ByName("subscription_id"))
	if err != nil {
		writeSubscriptionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

type SubscriptionActionRequest struct {
	Action   string `json:"action"` // pause, resume, cancel, reactivate
	ResumeAt *int64 `json:"resume_at,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Patch applies a lifecycle action to a subscription. The guarded state
// transitions live in the service; the handler only routes the action.
func (h *SubscriptionHandler) Patch(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	subscriptionID := params.ByName("subscription_id")

	var req SubscriptionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	var (
		sub interface{}
		err error
	)
	switch req.Action {
	case "pause":
		sub, err = h.subscriptions.Pause(claims.UserID, subscriptionID, req.ResumeAt)
	case "resume":
		sub, err = h.subscriptions.Resume(claims.UserID, subscriptionID)
	case "cancel":
		sub, err = h.subscriptions.Cancel(claims.UserID, subscriptionID, req.Reason)
	case "reactivate":
		sub, err = h.subscriptions.Reactivate(claims.UserID, subscriptionID)
	default:
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Unknown action", nil)
		return
	}

	if err != nil {
		writeSubscriptionError(w, err)
		return
	}

	h.audit.Log(r, claims.UserID, "subscription."+req.Action, "subscription", subscriptionID, nil)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func writeSubscriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, subscriptions.ErrNotFound):
		apiErrors.WriteError(w, http.StatusNotFound, apiErrors.ErrCodeNotFound, "Subscription not found", nil)
	case errors.Is(err, subscriptions.ErrInvalidTransition):
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidState, err.Error(), nil)
	default:
		apiErrors.WriteError(w, http.StatusInternalServerError, apiErrors.ErrCodeInternal, "Database error", nil)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "payssd/internal/api/context"
	"payssd/internal/pkg/errors"
	"payssd/internal/platform/audit"
	"payssd/internal/platform/auth"
	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

type APIKeyHandler struct {
	apiKeys *repositories.APIKeyRepository
	audit   *audit.Logger
}

func NewAPIKeyHandler(apiKeys *repositories.APIKeyRepository, auditLogger *audit.Logger) *APIKeyHandler {
	return &APIKeyHandler{apiKeys: apiKeys, audit: auditLogger}
}

type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

type CreateAPIKeyResponse struct {
	Key *models.APIKey `json:"key"`
	// RawKey is returned exactly once; only the hash is stored.
	RawKey string `json:"raw_key"`
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Key name is required", nil)
		return
	}

	rawKey := "sk_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")

	key := &models.APIKey{
		MerchantID: claims.UserID,
		Name:       req.Name,
		KeyHash:    auth.HashAPIKey(rawKey),
		KeyPrefix:  rawKey[:10],
	}

	if err := h.apiKeys.Create(key); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create API key", nil)
		return
	}

	h.audit.Log(r, claims.UserID, "api_key.create", "api_key", key.ID, map[string]interface{}{"name": key.Name})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateAPIKeyResponse{Key: key, RawKey: rawKey})
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	keys, err := h.apiKeys.ListByMerchant(claims.UserID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"keys": keys})
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	keyID := params.ByName("key_id")

	if err := h.apiKeys.Revoke(claims.UserID, keyID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to revoke API key", nil)
		return
	}

	h.audit.Log(r, claims.UserID, "api_key.revoke", "api_key", keyID, nil)

	w.WriteHeader(http.StatusOK)
}

package handlers

import (
	"encoding/json"
	"net/http"

	apiContext "payssd/internal/api/context"
	"payssd/internal/engine/access"
	"payssd/internal/pkg/errors"
	"payssd/internal/pkg/validator"
)

type AccessHandler struct {
	access *access.Service
}

func NewAccessHandler(svc *access.Service) *AccessHandler {
	return &AccessHandler{access: svc}
}

type AccessCheckRequest struct {
	ProductID     string `json:"product_id"`
	CustomerPhone string `json:"customer_phone"`
}

// Check is the public v1 entitlement check merchants call from their own
// backends before serving gated content.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	merchantID := r.Context().Value(apiContext.Merchant).(string)

	var req AccessCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	phone, err := validator.NormalizePhone(req.CustomerPhone)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	result, err := h.access.Check(merchantID, req.ProductID, phone)
	if err != nil {
		if err == access.ErrProductNotFound {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Product not found", nil)
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	apiContext "payssd/internal/api/context"
	"payssd/internal/engine/payments"
	"payssd/internal/pkg/errors"
	"payssd/internal/pkg/validator"
	"payssd/internal/platform/audit"
	"payssd/internal/platform/auth"
	"payssd/internal/platform/models"
)

type PaymentHandler struct {
	payments *payments.Service
	audit    *audit.Logger
}

func NewPaymentHandler(svc *payments.Service, auditLogger *audit.Logger) *PaymentHandler {
	return &PaymentHandler{payments: svc, audit: auditLogger}
}

type CreatePaymentRequest struct {
	ProductID     string `json:"product_id"`
	PriceID       string `json:"price_id"`
	CustomerPhone string `json:"customer_phone"`
	CustomerName  string `json:"customer_name"`
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	phone, err := validator.NormalizePhone(req.CustomerPhone)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	payment, err := h.payments.CreateRequestPayment(claims.UserID, payments.CreateRequest{
		ProductID:     req.ProductID,
		PriceID:       req.PriceID,
		CustomerPhone: phone,
		CustomerName:  req.CustomerName,
	})
	if err != nil {
		if err == payments.ErrNotFound {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Product not found", nil)
			return
		}
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(payment)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	status := r.URL.Query().Get("status")
	limit, offset := pagination(r)

	list, err := h.payments.List(claims.UserID, status, limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"payments": list})
}

// ListAll is the admin reconciliation queue across all merchants.
func (h *PaymentHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	limit, offset := pagination(r)

	list, err := h.payments.ListAll(status, limit, offset)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"payments": list})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	payment, err := h.payments.Get(claims.UserID, params.ByName("payment_id"))
	if err != nil {
		writePaymentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payment)
}

type SubmitClaimRequest struct {
	ReferenceCode string `json:"reference_code"`
	TransactionID string `json:"transaction_id"`
	ProofURL      string `json:"proof_url"`
}

// SubmitClaim handles a payment claim coming through the public v1 API, where
// the merchant is identified by API key and the payment by reference code.
func (h *PaymentHandler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	merchantID := r.Context().Value(apiContext.Merchant).(string)
	h.submitClaim(w, r, merchantID)
}

// Submit is the dashboard counterpart of SubmitClaim, used when a merchant
// records a customer's claim on the customer's behalf.
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	h.submitClaim(w, r, claims.UserID)
}

func (h *PaymentHandler) submitClaim(w http.ResponseWriter, r *http.Request, merchantID string) {
	var req SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.ReferenceCode == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Reference code is required", nil)
		return
	}

	result, err := h.payments.SubmitClaim(merchantID, req.ReferenceCode, req.TransactionID, req.ProofURL)
	if err != nil {
		writePaymentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

type PaymentActionRequest struct {
	Action string `json:"action"` // confirm, reject
	Reason string `json:"reason,omitempty"`
}

// Patch applies a reconciliation decision to a matched payment.
func (h *PaymentHandler) Patch(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	paymentID := params.ByName("payment_id")

	var req PaymentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	var (
		payment *models.Payment
		err     error
		details map[string]interface{}
	)
	switch req.Action {
	case "confirm":
		payment, err = h.payments.Confirm(claims.UserID, paymentID)
		if err == nil {
			details = map[string]interface{}{
				"reference_code": payment.ReferenceCode,
				"amount_cents":   payment.AmountCents,
			}
		}
	case "reject":
		if req.Reason == "" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Rejection reason is required", nil)
			return
		}
		payment, err = h.payments.Reject(claims.UserID, paymentID, req.Reason)
		if err == nil {
			details = map[string]interface{}{
				"reference_code": payment.ReferenceCode,
				"reason":         req.Reason,
			}
		}
	default:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown action", nil)
		return
	}

	if err != nil {
		writePaymentError(w, err)
		return
	}

	h.audit.Log(r, claims.UserID, "payment."+req.Action, "payment", paymentID, details)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payment)
}

// QRCode renders the payment reference code as a PNG for point-of-sale
// display.
func (h *PaymentHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	payment, err := h.payments.Get(claims.UserID, params.ByName("payment_id"))
	if err != nil {
		writePaymentError(w, err)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := payments.GenerateReferenceQR(payment.ReferenceCode, size)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate QR code", nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func writePaymentError(w http.ResponseWriter, err error) {
	switch err {
	case payments.ErrNotFound:
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Payment not found", nil)
	case payments.ErrNotPending:
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Payment not found or already processed", nil)
	case payments.ErrInvalidState:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidState, "Payment is not awaiting confirmation", nil)
	default:
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

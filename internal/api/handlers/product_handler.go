package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "payssd/internal/api/context"
	"payssd/internal/pkg/errors"
	"payssd/internal/platform/auth"
	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

type ProductHandler struct {
	products *repositories.ProductRepository
}

func NewProductHandler(products *repositories.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

type CreateProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductType string `json:"product_type"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Product name is required", nil)
		return
	}
	switch req.ProductType {
	case models.ProductTypeSubscription, models.ProductTypeDigital, models.ProductTypeContent:
	default:
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid product type", nil)
		return
	}

	product := &models.Product{
		ID:          "prod_" + uuid.NewString(),
		MerchantID:  claims.UserID,
		Name:        req.Name,
		Description: req.Description,
		ProductType: req.ProductType,
		IsActive:    true,
		CreatedAt:   time.Now().Unix(),
		UpdatedAt:   time.Now().Unix(),
	}

	if err := h.products.Create(product); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create product", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	list, err := h.products.ListByMerchant(claims.UserID, false)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"products": list})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	product, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}

	prices, err := h.products.ListPrices(product.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	product.Prices = prices

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	product, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	product.UpdatedAt = time.Now().Unix()

	if err := h.products.Update(product); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to update product", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(product)
}

type CreatePriceRequest struct {
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	BillingCycle string `json:"billing_cycle"`
}

func (h *ProductHandler) CreatePrice(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	product, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}

	var req CreatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.AmountCents <= 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Amount must be positive", nil)
		return
	}
	if req.Currency == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Currency is required", nil)
		return
	}
	if product.ProductType == models.ProductTypeSubscription && !models.ValidBillingCycle(req.BillingCycle) {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid billing cycle", nil)
		return
	}

	price := &models.Price{
		ID:           "price_" + uuid.NewString(),
		ProductID:    product.ID,
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
		BillingCycle: req.BillingCycle,
		IsActive:     true,
		CreatedAt:    time.Now().Unix(),
	}

	if err := h.products.CreatePrice(price); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create price", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(price)
}

func (h *ProductHandler) ListPrices(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	product, ok := h.getOwned(w, r, claims.UserID)
	if !ok {
		return
	}

	prices, err := h.products.ListPrices(product.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"prices": prices})
}

// V1List is the public catalog view for a merchant's storefront: active
// products with their active prices.
func (h *ProductHandler) V1List(w http.ResponseWriter, r *http.Request) {
	merchantID := r.Context().Value(apiContext.Merchant).(string)

	list, err := h.products.ListByMerchant(merchantID, true)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	for _, product := range list {
		prices, err := h.products.ListPrices(product.ID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		active := prices[:0]
		for _, p := range prices {
			if p.IsActive {
				active = append(active, p)
			}
		}
		product.Prices = active
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"products": list})
}

func (h *ProductHandler) getOwned(w http.ResponseWriter, r *http.Request, merchantID string) (*models.Product, bool) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	product, err := h.products.GetByID(params.ByName("product_id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return nil, false
	}
	if product == nil || product.MerchantID != merchantID {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Product not found", nil)
		return nil, false
	}
	return product, true
}

package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"payssd/internal/platform/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = "prod_" + uuid.New().String()
	}
	now := time.Now().Unix()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO products (id, merchant_id, name, description, product_type, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, product.ID, product.MerchantID, product.Name, product.Description, product.ProductType, product.IsActive, product.CreatedAt, product.UpdatedAt)
	return err
}

func (r *ProductRepository) GetByID(id string) (*models.Product, error) {
	product := &models.Product{}
	err := r.db.QueryRow(`
		SELECT id, merchant_id, name, description, product_type, is_active, created_at, updated_at
		FROM products WHERE id = ?
	`, id).Scan(&product.ID, &product.MerchantID, &product.Name, &product.Description, &product.ProductType, &product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) ListByMerchant(merchantID string, activeOnly bool) ([]*models.Product, error) {
	query := `SELECT id, merchant_id, name, description, product_type, is_active, created_at, updated_at FROM products WHERE merchant_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(query, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(&product.ID, &product.MerchantID, &product.Name, &product.Description, &product.ProductType, &product.IsActive, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Update(product *models.Product) error {
	product.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		UPDATE products SET name = ?, description = ?, product_type = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, product.Name, product.Description, product.ProductType, product.IsActive, product.UpdatedAt, product.ID)
	return err
}

func (r *ProductRepository) CreatePrice(price *models.Price) error {
	if price.ID == "" {
		price.ID = "price_" + uuid.New().String()
	}
	price.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO prices (id, product_id, amount_cents, currency, billing_cycle, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, price.ID, price.ProductID, price.AmountCents, price.Currency, price.BillingCycle, price.IsActive, price.CreatedAt)
	return err
}

func (r *ProductRepository) GetPrice(id string) (*models.Price, error) {
	price := &models.Price{}
	err := r.db.QueryRow(`
		SELECT id, product_id, amount_cents, currency, billing_cycle, is_active, created_at
		FROM prices WHERE id = ?
	`, id).Scan(&price.ID, &price.ProductID, &price.AmountCents, &price.Currency, &price.BillingCycle, &price.IsActive, &price.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return price, nil
}

func (r *ProductRepository) ListPrices(productID string) ([]*models.Price, error) {
	rows, err := r.db.Query(`
		SELECT id, product_id, amount_cents, currency, billing_cycle, is_active, created_at
		FROM prices WHERE product_id = ? ORDER BY created_at
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []*models.Price
	for rows.Next() {
		price := &models.Price{}
		if err := rows.Scan(&price.ID, &price.ProductID, &price.AmountCents, &price.Currency, &price.BillingCycle, &price.IsActive, &price.CreatedAt); err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

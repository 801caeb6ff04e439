package repositories

import (
	"database/sql"
	"time"

	"payssd/internal/platform/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, full_name, business_name, phone, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.FullName, user.BusinessName, user.Phone, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.get(`SELECT id, email, password_hash, full_name, business_name, phone, role, last_login_at, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.get(`SELECT id, email, password_hash, full_name, business_name, phone, role, last_login_at, created_at, updated_at FROM users WHERE email = ?`, email)
}

// GetAdmin returns the platform admin account that receives reconciliation
// notifications. Only one admin is expected.
func (r *UserRepository) GetAdmin() (*models.User, error) {
	return r.get(`SELECT id, email, password_hash, full_name, business_name, phone, role, last_login_at, created_at, updated_at FROM users WHERE role = 'admin' ORDER BY created_at LIMIT 1`)
}

func (r *UserRepository) get(query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	var lastLoginAt sql.NullInt64

	err := r.db.QueryRow(query, args...).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.BusinessName,
		&user.Phone, &user.Role, &lastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Int64
	}
	return user, nil
}

func (r *UserRepository) UpdateLastLogin(userID string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = ? WHERE id = ?`, timestamp, userID)
	return err
}

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Upsert(customer *models.Customer) error {
	customer.CreatedAt = time.Now().Unix()
	_, err := r.db.Exec(`
		INSERT INTO customers (id, merchant_id, phone, full_name, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (merchant_id, phone) DO UPDATE SET
			full_name = CASE WHEN excluded.full_name != '' THEN excluded.full_name ELSE customers.full_name END,
			email = CASE WHEN excluded.email != '' THEN excluded.email ELSE customers.email END
	`, customer.ID, customer.MerchantID, customer.Phone, customer.FullName, customer.Email, customer.CreatedAt)
	return err
}

func (r *CustomerRepository) GetByPhone(merchantID, phone string) (*models.Customer, error) {
	customer := &models.Customer{}
	err := r.db.QueryRow(`
		SELECT id, merchant_id, phone, full_name, email, created_at
		FROM customers WHERE merchant_id = ? AND phone = ?
	`, merchantID, phone).Scan(&customer.ID, &customer.MerchantID, &customer.Phone, &customer.FullName, &customer.Email, &customer.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return customer, nil
}

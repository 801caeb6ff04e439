package models

const (
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
	Role         string `json:"role"` // merchant, admin
	LastLoginAt  *int64 `json:"last_login_at,omitempty"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Customer struct {
	ID         string `json:"id"`
	MerchantID string `json:"merchant_id"`
	Phone      string `json:"phone"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	CreatedAt  int64  `json:"created_at"`
}

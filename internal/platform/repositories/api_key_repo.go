package repositories

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"payssd/internal/platform/models"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	key.CreatedAt = time.Now().Unix()
	key.IsActive = true

	_, err := r.db.Exec(`
		INSERT INTO api_keys (id, merchant_id, name, key_hash, key_prefix, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key.ID, key.MerchantID, key.Name, key.KeyHash, key.KeyPrefix, key.IsActive, key.CreatedAt)
	return err
}

func (r *APIKeyRepository) GetByHash(hash string) (*models.APIKey, error) {
	key := &models.APIKey{}
	var lastUsedAt, revokedAt sql.NullInt64

	err := r.db.QueryRow(`
		SELECT id, merchant_id, name, key_prefix, is_active, last_used_at, revoked_at, created_at
		FROM api_keys WHERE key_hash = ?
	`, hash).Scan(&key.ID, &key.MerchantID, &key.Name, &key.KeyPrefix, &key.IsActive, &lastUsedAt, &revokedAt, &key.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if lastUsedAt.Valid {
		key.LastUsedAt = &lastUsedAt.Int64
	}
	if revokedAt.Valid {
		key.RevokedAt = &revokedAt.Int64
	}
	key.KeyHash = hash

	return key, nil
}

func (r *APIKeyRepository) ListByMerchant(merchantID string) ([]*models.APIKey, error) {
	rows, err := r.db.Query(`
		SELECT id, name, key_prefix, is_active, last_used_at, revoked_at, created_at
		FROM api_keys WHERE merchant_id = ? ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		key := &models.APIKey{}
		var lastUsedAt, revokedAt sql.NullInt64

		if err := rows.Scan(&key.ID, &key.Name, &key.KeyPrefix, &key.IsActive, &lastUsedAt, &revokedAt, &key.CreatedAt); err != nil {
			return nil, err
		}
		if lastUsedAt.Valid {
			key.LastUsedAt = &lastUsedAt.Int64
		}
		if revokedAt.Valid {
			key.RevokedAt = &revokedAt.Int64
		}
		key.MerchantID = merchantID
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepository) Revoke(merchantID, id string) error {
	_, err := r.db.Exec(`
		UPDATE api_keys SET is_active = 0, revoked_at = ?
		WHERE id = ? AND merchant_id = ?
	`, time.Now().Unix(), id, merchantID)
	return err
}

func (r *APIKeyRepository) UpdateLastUsed(id string) error {
	_, err := r.db.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

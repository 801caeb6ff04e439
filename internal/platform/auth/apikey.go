package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"payssd/internal/platform/models"
)

const apiKeyPrefix = "sk_"

var (
	ErrInvalidAPIKey  = errors.New("Invalid API key")
	ErrAPIKeyInactive = errors.New("API key is inactive")
)

type apiKeyStore interface {
	GetByHash(hash string) (*models.APIKey, error)
}

// HashAPIKey is a one-way hash; the raw secret key is shown to the merchant
// exactly once at creation time and only the hash is stored.
func HashAPIKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// AuthenticateAPIKey resolves a bearer token of the form "sk_..." to the
// owning merchant's API key record.
func AuthenticateAPIKey(store apiKeyStore, rawKey string) (*models.APIKey, error) {
	if !strings.HasPrefix(rawKey, apiKeyPrefix) {
		return nil, ErrInvalidAPIKey
	}

	key, err := store.GetByHash(HashAPIKey(rawKey))
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrInvalidAPIKey
	}
	if !key.IsActive || key.RevokedAt != nil {
		return nil, ErrAPIKeyInactive
	}

	return key, nil
}

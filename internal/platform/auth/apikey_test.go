package auth

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"payssd/internal/platform/repositories"
)

var apiKeyColumns = []string{"id", "merchant_id", "name", "key_prefix", "is_active", "last_used_at", "revoked_at", "created_at"}

func TestAuthenticateAPIKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := repositories.NewAPIKeyRepository(db)

	t.Run("Valid Key", func(t *testing.T) {
		rawKey := "sk_live_abc123"
		rows := sqlmock.NewRows(apiKeyColumns).
			AddRow("key_1", "merchant_1", "prod key", "sk_live_ab", true, nil, nil, 1234567890)

		mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash = ?").
			WithArgs(HashAPIKey(rawKey)).
			WillReturnRows(rows)

		key, err := AuthenticateAPIKey(repo, rawKey)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if key.MerchantID != "merchant_1" {
			t.Errorf("Expected merchant_1, got %s", key.MerchantID)
		}
	})

	t.Run("Inactive Key", func(t *testing.T) {
		rawKey := "sk_test123"
		rows := sqlmock.NewRows(apiKeyColumns).
			AddRow("key_2", "merchant_1", "old key", "sk_test123", false, nil, nil, 1234567890)

		mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash = ?").
			WithArgs(HashAPIKey(rawKey)).
			WillReturnRows(rows)

		_, err := AuthenticateAPIKey(repo, rawKey)
		if err != ErrAPIKeyInactive {
			t.Errorf("Expected ErrAPIKeyInactive, got %v", err)
		}
		if err.Error() != "API key is inactive" {
			t.Errorf("Unexpected error message: %s", err.Error())
		}
	})

	t.Run("Unknown Key", func(t *testing.T) {
		rawKey := "sk_unknown"
		mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash = ?").
			WithArgs(HashAPIKey(rawKey)).
			WillReturnRows(sqlmock.NewRows(apiKeyColumns))

		_, err := AuthenticateAPIKey(repo, rawKey)
		if err != ErrInvalidAPIKey {
			t.Errorf("Expected ErrInvalidAPIKey, got %v", err)
		}
	})

	t.Run("Missing Prefix", func(t *testing.T) {
		// No query expected; the prefix check fails first.
		_, err := AuthenticateAPIKey(repo, "pk_wrong_kind")
		if err != ErrInvalidAPIKey {
			t.Errorf("Expected ErrInvalidAPIKey, got %v", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

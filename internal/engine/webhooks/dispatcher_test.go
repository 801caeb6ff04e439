package webhooks

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

func setupWebhookDB(t *testing.T) *repositories.WebhookRepository {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		events TEXT NOT NULL,
		is_active INTEGER DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE webhook_deliveries (
		id TEXT PRIMARY KEY,
		webhook_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		response_status INTEGER,
		response_body TEXT DEFAULT '',
		error TEXT DEFAULT '',
		delivered_at INTEGER,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return repositories.NewWebhookRepository(db)
}

func TestDispatchSignsAndDelivers(t *testing.T) {
	repo := setupWebhookDB(t)

	var got struct {
		signature string
		timestamp string
		eventName string
		body      []byte
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.signature = r.Header.Get("X-Losetify-Signature")
		got.timestamp = r.Header.Get("X-Losetify-Timestamp")
		got.eventName = r.Header.Get("X-Losetify-Event")
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	webhook := &models.Webhook{
		MerchantID: "merchant_1",
		URL:        server.URL,
		Secret:     "whsec_test",
		Events:     []string{models.EventPaymentConfirmed},
		IsActive:   true,
	}
	require.NoError(t, repo.Create(webhook))

	dispatcher := NewDispatcher(repo, 2*time.Second)
	results := dispatcher.Dispatch("merchant_1", models.EventPaymentConfirmed, map[string]string{"id": "pay_1"})

	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	require.Equal(t, http.StatusOK, results[0].Status)

	// The signature must verify against the exact delivered bytes.
	ts, err := strconv.ParseInt(got.timestamp, 10, 64)
	require.NoError(t, err)
	require.Equal(t, Sign("whsec_test", ts, got.body), got.signature)
	require.Equal(t, models.EventPaymentConfirmed, got.eventName)

	var event models.WebhookEvent
	require.NoError(t, json.Unmarshal(got.body, &event))
	require.Equal(t, models.EventPaymentConfirmed, event.Event)
	require.Equal(t, ts, event.Timestamp)

	deliveries, err := repo.ListDeliveries(webhook.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	require.NotNil(t, deliveries[0].DeliveredAt)
	require.Equal(t, http.StatusOK, *deliveries[0].ResponseStatus)
}

func TestDispatchFailureDoesNotBlockOthers(t *testing.T) {
	repo := setupWebhookDB(t)

	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()

	failing := &models.Webhook{
		MerchantID: "merchant_1",
		URL:        "http://127.0.0.1:1", // nothing listens here
		Secret:     "whsec_a",
		Events:     []string{models.EventPaymentMatched},
		IsActive:   true,
	}
	healthy := &models.Webhook{
		MerchantID: "merchant_1",
		URL:        okServer.URL,
		Secret:     "whsec_b",
		Events:     []string{models.EventPaymentMatched},
		IsActive:   true,
	}
	require.NoError(t, repo.Create(failing))
	require.NoError(t, repo.Create(healthy))

	dispatcher := NewDispatcher(repo, 2*time.Second)
	results := dispatcher.Dispatch("merchant_1", models.EventPaymentMatched, map[string]string{"id": "pay_2"})

	require.Len(t, results, 2)
	var successes, failures int
	for _, res := range results {
		if res.Success {
			successes++
		} else {
			failures++
			require.NotEmpty(t, res.Error)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, failures)

	// The transport failure is logged with a null delivered_at.
	deliveries, err := repo.ListDeliveries(failing.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	require.Nil(t, deliveries[0].DeliveredAt)
	require.NotEmpty(t, deliveries[0].Error)
}

func TestDispatchFiltersByEventAndActivity(t *testing.T) {
	repo := setupWebhookDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("endpoint should not be called")
	}))
	defer server.Close()

	wrongEvent := &models.Webhook{
		MerchantID: "merchant_1",
		URL:        server.URL,
		Secret:     "whsec_a",
		Events:     []string{models.EventPaymentRejected},
		IsActive:   true,
	}
	inactive := &models.Webhook{
		MerchantID: "merchant_1",
		URL:        server.URL,
		Secret:     "whsec_b",
		Events:     []string{models.EventPaymentMatched},
		IsActive:   false,
	}
	require.NoError(t, repo.Create(wrongEvent))
	require.NoError(t, repo.Create(inactive))

	dispatcher := NewDispatcher(repo, 2*time.Second)
	results := dispatcher.Dispatch("merchant_1", models.EventPaymentMatched, nil)
	require.Empty(t, results)
}

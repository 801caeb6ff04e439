package access

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

func setupAccessDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE products (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		product_type TEXT NOT NULL,
		is_active INTEGER DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE subscriptions (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		price_id TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		status TEXT NOT NULL,
		billing_cycle TEXT DEFAULT '',
		current_period_start INTEGER DEFAULT 0,
		current_period_end INTEGER DEFAULT 0,
		paused_at INTEGER,
		resume_at INTEGER,
		cancelled_at INTEGER,
		cancellation_reason TEXT DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	now := time.Now().Unix()
	_, err = db.Exec(`INSERT INTO products (id, merchant_id, name, product_type, created_at, updated_at)
		VALUES ('prod_1', 'merchant_1', 'News Archive', 'subscription', ?, ?)`, now, now)
	require.NoError(t, err)

	return db
}

func newAccessService(db *sql.DB, graceDays int) *Service {
	return NewService(
		repositories.NewProductRepository(db),
		repositories.NewSubscriptionRepository(db),
		graceDays,
	)
}

func insertSub(t *testing.T, db *sql.DB, id, status string, periodEnd, createdAt int64) {
	_, err := db.Exec(`INSERT INTO subscriptions (id, merchant_id, product_id, price_id, customer_phone, status, billing_cycle,
		current_period_start, current_period_end, created_at, updated_at)
		VALUES (?, 'merchant_1', 'prod_1', 'price_1', '+211925551234', ?, 'monthly', 0, ?, ?, ?)`,
		id, status, periodEnd, createdAt, createdAt)
	require.NoError(t, err)
}

func TestCheckActiveSubscription(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	now := time.Now().Unix()
	insertSub(t, db, "sub_1", models.SubscriptionStatusActive, now+86400*10, now)

	result, err := svc.Check("merchant_1", "prod_1", "+211925551234")
	require.NoError(t, err)
	require.True(t, result.HasAccess)
	require.Equal(t, models.SubscriptionStatusActive, result.Status)
	require.False(t, result.InGracePeriod)
	require.Equal(t, 10, result.DaysRemaining)
	require.Equal(t, "sub_1", result.SubscriptionID)
}

func TestCheckGracePeriod(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	now := time.Now().Unix()
	// Period ended a day ago, still inside the 3-day grace window.
	insertSub(t, db, "sub_1", models.SubscriptionStatusActive, now-86400, now)

	result, err := svc.Check("merchant_1", "prod_1", "+211925551234")
	require.NoError(t, err)
	require.True(t, result.HasAccess)
	require.True(t, result.InGracePeriod)
	require.Equal(t, 2, result.DaysRemaining)
}

func TestCheckGraceExpired(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	now := time.Now().Unix()
	insertSub(t, db, "sub_1", models.SubscriptionStatusActive, now-86400*4, now)

	result, err := svc.Check("merchant_1", "prod_1", "+211925551234")
	require.NoError(t, err)
	require.False(t, result.HasAccess)
}

func TestCheckCancelledRetainsPaidPeriod(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	now := time.Now().Unix()
	insertSub(t, db, "sub_1", models.SubscriptionStatusCancelled, now+86400*5, now)

	result, err := svc.Check("merchant_1", "prod_1", "+211925551234")
	require.NoError(t, err)
	require.True(t, result.HasAccess)
	require.Equal(t, models.SubscriptionStatusCancelled, result.Status)
}

func TestCheckCancelledPastPeriodNoGrace(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	now := time.Now().Unix()
	// The grace window applies to active subscriptions only.
	insertSub(t, db, "sub_1", models.SubscriptionStatusCancelled, now-3600, now)

	result, err := svc.Check("merchant_1", "prod_1", "+211925551234")
	require.NoError(t, err)
	require.False(t, result.HasAccess)
}

func TestCheckPendingSubscription(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	now := time.Now().Unix()
	insertSub(t, db, "sub_1", models.SubscriptionStatusPending, 0, now)

	result, err := svc.Check("merchant_1", "prod_1", "+211925551234")
	require.NoError(t, err)
	require.False(t, result.HasAccess)
	require.Equal(t, models.SubscriptionStatusPending, result.Status)
}

func TestCheckUsesNewestSubscription(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	now := time.Now().Unix()
	insertSub(t, db, "sub_old", models.SubscriptionStatusExpired, now-86400*40, now-86400*60)
	insertSub(t, db, "sub_new", models.SubscriptionStatusActive, now+86400*20, now)

	result, err := svc.Check("merchant_1", "prod_1", "+211925551234")
	require.NoError(t, err)
	require.True(t, result.HasAccess)
	require.Equal(t, "sub_new", result.SubscriptionID)
}

func TestCheckNoSubscription(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	result, err := svc.Check("merchant_1", "prod_1", "+211925559999")
	require.NoError(t, err)
	require.False(t, result.HasAccess)
	require.Equal(t, "none", result.Status)
}

func TestCheckUnknownProduct(t *testing.T) {
	db := setupAccessDB(t)
	svc := newAccessService(db, 3)

	_, err := svc.Check("merchant_1", "prod_missing", "+211925551234")
	require.ErrorIs(t, err, ErrProductNotFound)

	// Another merchant's product looks missing too.
	_, err = svc.Check("merchant_2", "prod_1", "+211925551234")
	require.ErrorIs(t, err, ErrProductNotFound)
}

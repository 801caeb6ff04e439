package payments

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE customers (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		phone TEXT NOT NULL,
		full_name TEXT DEFAULT '',
		email TEXT DEFAULT '',
		created_at INTEGER NOT NULL,
		UNIQUE(merchant_id, phone)
	);
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
	CREATE TABLE prices (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		billing_cycle TEXT DEFAULT '',
		is_active INTEGER DEFAULT 1,
		created_at INTEGER NOT NULL
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
	CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		merchant_id TEXT NOT NULL,
		subscription_id TEXT,
		reference_code TEXT UNIQUE NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		customer_phone TEXT NOT NULL,
		transaction_id TEXT DEFAULT '',
		proof_url TEXT DEFAULT '',
		metadata TEXT DEFAULT '{}',
		rejection_reason TEXT DEFAULT '',
		matched_at INTEGER,
		confirmed_at INTEGER,
		expires_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *sql.DB) *Service {
	return NewService(
		repositories.NewPaymentRepository(db),
		repositories.NewSubscriptionRepository(db),
		repositories.NewProductRepository(db),
		repositories.NewCustomerRepository(db),
		nil, nil,
		Config{RenewalWindow: 7 * 24 * time.Hour, PaymentTTL: 48 * time.Hour},
	)
}

func seedProduct(t *testing.T, db *sql.DB, merchantID string) (productID, priceID string) {
	now := time.Now().Unix()
	_, err := db.Exec(`INSERT INTO products (id, merchant_id, name, product_type, is_active, created_at, updated_at)
		VALUES ('prod_1', ?, 'Gold Plan', 'subscription', 1, ?, ?)`, merchantID, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO prices (id, product_id, amount_cents, currency, billing_cycle, is_active, created_at)
		VALUES ('price_1', 'prod_1', 5000, 'SSP', 'monthly', 1, ?)`, now)
	require.NoError(t, err)
	return "prod_1", "price_1"
}

func TestCreateRequestPayment(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	productID, priceID := seedProduct(t, db, "merchant_1")

	payment, err := svc.CreateRequestPayment("merchant_1", CreateRequest{
		ProductID:     productID,
		PriceID:       priceID,
		CustomerPhone: "+211925551234",
		CustomerName:  "Achol Deng",
	})
	require.NoError(t, err)

	require.Equal(t, models.PaymentStatusPending, payment.Status)
	require.Equal(t, models.PaymentTypeInitial, payment.PaymentType)
	require.Equal(t, int64(5000), payment.AmountCents)
	require.NotNil(t, payment.SubscriptionID)
	require.NotNil(t, payment.ExpiresAt)
	require.Regexp(t, `^PAY-[A-Z0-9]{8}$`, payment.ReferenceCode)

	sub, err := repositories.NewSubscriptionRepository(db).GetByID(*payment.SubscriptionID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionStatusPending, sub.Status)
}

func TestCreateRequestPaymentWrongMerchant(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	productID, priceID := seedProduct(t, db, "merchant_1")

	_, err := svc.CreateRequestPayment("merchant_2", CreateRequest{
		ProductID:     productID,
		PriceID:       priceID,
		CustomerPhone: "+211925551234",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitClaim(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	productID, priceID := seedProduct(t, db, "merchant_1")

	payment, err := svc.CreateRequestPayment("merchant_1", CreateRequest{
		ProductID: productID, PriceID: priceID, CustomerPhone: "+211925551234",
	})
	require.NoError(t, err)

	// No proof attached: acknowledged, payment stays pending.
	result, err := svc.SubmitClaim("merchant_1", payment.ReferenceCode, "", "")
	require.NoError(t, err)
	require.False(t, result.Matched)
	require.Equal(t, models.PaymentStatusPending, result.Payment.Status)

	// With proof: pending -> matched.
	result, err = svc.SubmitClaim("merchant_1", payment.ReferenceCode, "MTN-TXN-99", "")
	require.NoError(t, err)
	require.True(t, result.Matched)
	require.Equal(t, models.PaymentStatusMatched, result.Payment.Status)
	require.Equal(t, "MTN-TXN-99", result.Payment.TransactionID)
	require.NotNil(t, result.Payment.MatchedAt)

	// A second claim with proof loses the conditional update.
	_, err = svc.SubmitClaim("merchant_1", payment.ReferenceCode, "MTN-TXN-100", "")
	require.ErrorIs(t, err, ErrNotPending)
}

func TestSubmitClaimUnknownReference(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.SubmitClaim("merchant_1", "PAY-NOSUCH00", "tx", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmActivatesSubscription(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	productID, priceID := seedProduct(t, db, "merchant_1")

	payment, err := svc.CreateRequestPayment("merchant_1", CreateRequest{
		ProductID: productID, PriceID: priceID, CustomerPhone: "+211925551234",
	})
	require.NoError(t, err)

	_, err = svc.SubmitClaim("merchant_1", payment.ReferenceCode, "MTN-TXN-1", "")
	require.NoError(t, err)

	confirmed, err := svc.Confirm("merchant_1", payment.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	sub, err := repositories.NewSubscriptionRepository(db).GetByID(*payment.SubscriptionID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.Greater(t, sub.CurrentPeriodEnd, time.Now().Unix())

	// Confirming twice fails the guarded transition.
	_, err = svc.Confirm("merchant_1", payment.ID)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestConfirmRenewalOnCancelledSubscription(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	seedProduct(t, db, "merchant_1")

	now := time.Now().Unix()
	periodEnd := now + 86400*3
	_, err := db.Exec(`INSERT INTO subscriptions (id, merchant_id, product_id, price_id, customer_phone, status, billing_cycle,
		current_period_start, current_period_end, cancelled_at, created_at, updated_at)
		VALUES ('sub_1', 'merchant_1', 'prod_1', 'price_1', '+211925551234', 'cancelled', 'monthly', ?, ?, ?, ?, ?)`,
		now-86400*27, periodEnd, now, now, now)
	require.NoError(t, err)

	subID := "sub_1"
	matchedAt := now
	repo := repositories.NewPaymentRepository(db)
	require.NoError(t, repo.Create(&models.Payment{
		ID: "pay_ren", MerchantID: "merchant_1", SubscriptionID: &subID,
		ReferenceCode: "REN-CANCEL01", AmountCents: 5000, Currency: "SSP",
		Status: models.PaymentStatusMatched, PaymentType: models.PaymentTypeRenewal,
		CustomerPhone: "+211925551234", MatchedAt: &matchedAt,
	}))

	confirmed, err := svc.Confirm("merchant_1", "pay_ren")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusConfirmed, confirmed.Status)

	// The cancelled subscription is not extendable; its period stays put.
	sub, err := repositories.NewSubscriptionRepository(db).GetByID("sub_1")
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
	require.Equal(t, periodEnd, sub.CurrentPeriodEnd)
}

func TestRejectPayment(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	productID, priceID := seedProduct(t, db, "merchant_1")

	payment, err := svc.CreateRequestPayment("merchant_1", CreateRequest{
		ProductID: productID, PriceID: priceID, CustomerPhone: "+211925551234",
	})
	require.NoError(t, err)

	rejected, err := svc.Reject("merchant_1", payment.ID, "amount mismatch")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRejected, rejected.Status)
	require.Equal(t, "amount mismatch", rejected.RejectionReason)

	sub, err := repositories.NewSubscriptionRepository(db).GetByID(*payment.SubscriptionID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionStatusPending, sub.Status)
}

func TestExpirePending(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)

	now := time.Now()
	stale := now.Add(-time.Hour).Unix()
	fresh := now.Add(time.Hour).Unix()

	repo := repositories.NewPaymentRepository(db)
	for _, p := range []*models.Payment{
		{ID: "pay_stale", MerchantID: "m1", ReferenceCode: "PAY-STALE001", AmountCents: 100, Currency: "SSP",
			Status: models.PaymentStatusPending, PaymentType: models.PaymentTypeInitial, CustomerPhone: "p", ExpiresAt: &stale},
		{ID: "pay_fresh", MerchantID: "m1", ReferenceCode: "PAY-FRESH001", AmountCents: 100, Currency: "SSP",
			Status: models.PaymentStatusPending, PaymentType: models.PaymentTypeInitial, CustomerPhone: "p", ExpiresAt: &fresh},
	} {
		require.NoError(t, repo.Create(p))
	}

	refs, err := svc.ExpirePending(now)
	require.NoError(t, err)
	require.Equal(t, []string{"PAY-STALE001"}, refs)

	expired, err := repo.GetByID("pay_stale")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusExpired, expired.Status)

	untouched, err := repo.GetByID("pay_fresh")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, untouched.Status)

	// Idempotent on re-run.
	refs, err = svc.ExpirePending(now)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestGenerateRenewals(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	seedProduct(t, db, "merchant_1")

	now := time.Now()
	periodEnd := now.Add(3 * 24 * time.Hour).Unix()
	nowUnix := now.Unix()

	_, err := db.Exec(`INSERT INTO subscriptions (id, merchant_id, product_id, price_id, customer_phone, status, billing_cycle,
		current_period_start, current_period_end, created_at, updated_at)
		VALUES ('sub_1', 'merchant_1', 'prod_1', 'price_1', '+211925551234', 'active', 'monthly', ?, ?, ?, ?)`,
		nowUnix-86400*27, periodEnd, nowUnix, nowUnix)
	require.NoError(t, err)

	run, err := svc.GenerateRenewals(now)
	require.NoError(t, err)
	require.Equal(t, 1, run.Generated)
	require.Regexp(t, `^REN-[A-Z0-9]{8}$`, run.References[0])

	repo := repositories.NewPaymentRepository(db)
	payment, err := repo.GetByReference(run.References[0])
	require.NoError(t, err)
	require.Equal(t, models.PaymentTypeRenewal, payment.PaymentType)
	require.Equal(t, int64(5000), payment.AmountCents)
	require.Equal(t, "sub_1", *payment.SubscriptionID)
	require.Equal(t, periodEnd, *payment.ExpiresAt)
	require.Equal(t, "monthly", payment.Metadata["billing_cycle"])

	// A second run sees the pending renewal and produces nothing.
	run, err = svc.GenerateRenewals(now)
	require.NoError(t, err)
	require.Equal(t, 0, run.Generated)
}

func TestGenerateRenewalsOutsideWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db)
	seedProduct(t, db, "merchant_1")

	now := time.Now()
	nowUnix := now.Unix()
	farEnd := now.Add(30 * 24 * time.Hour).Unix()

	_, err := db.Exec(`INSERT INTO subscriptions (id, merchant_id, product_id, price_id, customer_phone, status, billing_cycle,
		current_period_start, current_period_end, created_at, updated_at)
		VALUES ('sub_far', 'merchant_1', 'prod_1', 'price_1', '+211925551234', 'active', 'monthly', ?, ?, ?, ?)`,
		nowUnix, farEnd, nowUnix, nowUnix)
	require.NoError(t, err)

	run, err := svc.GenerateRenewals(now)
	require.NoError(t, err)
	require.Equal(t, 0, run.Generated)
}

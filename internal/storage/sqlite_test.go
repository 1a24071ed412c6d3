package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/model"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testBill(userID string, amount float64, merchant string) *model.Bill {
	return &model.Bill{
		UserID:   userID,
		Merchant: merchant,
		BillDate: "2026-08-15",
		RawText:  "some receipt text",
		Source:   "ocr",
		Type:     model.TypeExpense,
		Amount:   amount,
	}
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(context.Background()))

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestCreateBill(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := createTestStorage(t)

		bill := testBill("u1", 450.50, "Swiggy")
		bill.PaymentApp = "PhonePe"
		bill.PaymentMode = "UPI"
		id, err := store.CreateBill(ctx, bill)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := store.GetBillByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, "Swiggy", got.Merchant)
		assert.Equal(t, 450.50, got.Amount)
		assert.Equal(t, model.TypeExpense, got.Type)
		assert.Equal(t, "PhonePe", got.PaymentApp)
		assert.Equal(t, "2026-08-15", got.BillDate)
	})

	t.Run("duplicate hash rejected", func(t *testing.T) {
		store := createTestStorage(t)

		_, err := store.CreateBill(ctx, testBill("u1", 450.50, "Swiggy"))
		require.NoError(t, err)

		_, err = store.CreateBill(ctx, testBill("u1", 450.50, "Swiggy"))
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)
	})

	t.Run("invalid bills rejected", func(t *testing.T) {
		store := createTestStorage(t)

		_, err := store.CreateBill(ctx, nil)
		assert.Error(t, err)

		_, err = store.CreateBill(ctx, testBill("", 100, "x"))
		assert.ErrorIs(t, err, ErrInvalidBill)

		_, err = store.CreateBill(ctx, testBill("u1", -5, "x"))
		assert.ErrorIs(t, err, ErrInvalidBill)

		bad := testBill("u1", 100, "x")
		bad.Type = "loan"
		_, err = store.CreateBill(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidBill)
	})

	t.Run("missing bill is not found", func(t *testing.T) {
		store := createTestStorage(t)
		_, err := store.GetBillByID(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestInsertLineItems(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	id, err := store.CreateBill(ctx, testBill("u1", 180, "Cafe"))
	require.NoError(t, err)

	qty := 2.0
	total := 120.0
	items := []model.LineItem{
		{Description: "Cold Coffee", Quantity: &qty, LineTotal: &total, RawLine: "Cold Coffee 2 x 120"},
		{Description: "Brownie", RawLine: "Brownie 60"},
	}
	require.NoError(t, store.InsertLineItems(ctx, id, items))

	var count int
	require.NoError(t, store.db.QueryRow(
		`SELECT COUNT(*) FROM bill_items WHERE bill_id = ?`, id).Scan(&count))
	assert.Equal(t, 2, count)

	// Empty slices are a no-op, not an error.
	require.NoError(t, store.InsertLineItems(ctx, id, nil))
}

func TestSummaries(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	seed := []struct {
		merchant string
		category string
		billType model.TransactionType
		amount   float64
	}{
		{"Swiggy", "Food", model.TypeExpense, 450},
		{"Cafe Blue", "Food", model.TypeExpense, 250},
		{"Indian Oil", "Fuel", model.TypeExpense, 2000},
		{"Acme Corp", "Salary", model.TypeIncome, 50000},
	}
	for _, s := range seed {
		bill := testBill("u1", s.amount, s.merchant)
		bill.Type = s.billType
		id, err := store.CreateBill(ctx, bill)
		require.NoError(t, err)
		require.NoError(t, store.InsertCategoryRecord(ctx, &model.CategoryRecord{
			BillID:     id,
			Category:   s.category,
			Confidence: 0.9,
			Metadata:   map[string]any{"source": "test"},
		}))
	}

	// A second user's data must stay invisible.
	_, err := store.CreateBill(ctx, testBill("u2", 999, "Other"))
	require.NoError(t, err)

	t.Run("totals by type", func(t *testing.T) {
		totals, err := store.GetTotalsByType(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2700.0, totals[model.TypeExpense].Total)
		assert.Equal(t, 3, totals[model.TypeExpense].Count)
		assert.Equal(t, 50000.0, totals[model.TypeIncome].Total)
	})

	t.Run("category totals ordered by spend", func(t *testing.T) {
		totals, err := store.GetCategoryTotals(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, "Fuel", totals[0].Category)
		assert.Equal(t, 2000.0, totals[0].Total)
		assert.Equal(t, "Food", totals[1].Category)
		assert.Equal(t, 700.0, totals[1].Total)
		assert.Equal(t, 350.0, totals[1].Average)
		assert.Equal(t, 2, totals[1].Count)
	})

	t.Run("spending by category is case-insensitive", func(t *testing.T) {
		ct, err := store.GetSpendingByCategory(ctx, "u1", "food")
		require.NoError(t, err)
		assert.Equal(t, 700.0, ct.Total)
		assert.Equal(t, 2, ct.Count)
	})

	t.Run("unknown category has zero count", func(t *testing.T) {
		ct, err := store.GetSpendingByCategory(ctx, "u1", "Yachts")
		require.NoError(t, err)
		assert.Zero(t, ct.Count)
		assert.Zero(t, ct.Total)
	})

	t.Run("top expenses", func(t *testing.T) {
		bills, err := store.GetTopExpenses(ctx, "u1", 2)
		require.NoError(t, err)
		require.Len(t, bills, 2)
		assert.Equal(t, 2000.0, bills[0].Amount)
		assert.Equal(t, 450.0, bills[1].Amount)
	})

	t.Run("recent bills include income", func(t *testing.T) {
		bills, err := store.GetRecentBills(ctx, "u1", 10)
		require.NoError(t, err)
		assert.Len(t, bills, 4)
	})
}

func TestUserMemory(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	t.Run("missing memory is not found", func(t *testing.T) {
		_, err := store.LoadUserMemory(ctx, "nobody")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("round trip and upsert", func(t *testing.T) {
		mem := model.NewUserMemory()
		mem.MerchantMap["swiggy"] = "Food"
		mem.KeywordMap["biryani"] = "Food"
		mem.AmountBuckets[4] = "Food"
		require.NoError(t, store.SaveUserMemory(ctx, "u1", mem))

		got, err := store.LoadUserMemory(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Food", got.MerchantMap["swiggy"])
		assert.Equal(t, "Food", got.AmountBuckets[4])

		got.MerchantMap["dmart"] = "Groceries"
		require.NoError(t, store.SaveUserMemory(ctx, "u1", got))

		again, err := store.LoadUserMemory(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, again.MerchantMap, 2)
	})

	t.Run("nil memory rejected", func(t *testing.T) {
		err := store.SaveUserMemory(ctx, "u1", nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestCreateBillAssignsTimestamps(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	before := time.Now().Add(-time.Second)
	bill := testBill("u1", 100, "Shop")
	_, err := store.CreateBill(ctx, bill)
	require.NoError(t, err)
	assert.True(t, bill.CreatedAt.After(before))
}

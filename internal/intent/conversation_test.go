package intent

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/hybrid"
	"github.com/hridayan/khata/internal/memory"
	"github.com/hridayan/khata/internal/model"
	"github.com/hridayan/khata/internal/service"
)

type fakeStore struct {
	mu       sync.Mutex
	bills    []*model.Bill
	records  []*model.CategoryRecord
	memories map[string]*model.UserMemory
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{memories: make(map[string]*model.UserMemory)}
}

func (f *fakeStore) CreateBill(_ context.Context, bill *model.Bill) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	bill.ID = string(rune('a' + f.nextID))
	f.bills = append(f.bills, bill)
	return bill.ID, nil
}

func (f *fakeStore) InsertCategoryRecord(_ context.Context, record *model.CategoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeStore) LoadUserMemory(_ context.Context, userID string) (*model.UserMemory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mem, ok := f.memories[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return mem, nil
}

func (f *fakeStore) SaveUserMemory(_ context.Context, userID string, mem *model.UserMemory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memories[userID] = mem
	return nil
}

func (f *fakeStore) GetTotalsByType(_ context.Context, userID string) (map[model.TransactionType]service.TypeSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := make(map[model.TransactionType]service.TypeSummary)
	for _, b := range f.bills {
		if b.UserID != userID {
			continue
		}
		s := totals[b.Type]
		s.Total += b.Amount
		s.Count++
		totals[b.Type] = s
	}
	return totals, nil
}

func (f *fakeStore) GetCategoryTotals(_ context.Context, userID string) ([]service.CategoryTotal, error) {
	return nil, nil
}

func (f *fakeStore) GetSpendingByCategory(_ context.Context, userID, category string) (*service.CategoryTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[string]*model.Bill)
	for _, b := range f.bills {
		byID[b.ID] = b
	}
	out := &service.CategoryTotal{Category: category}
	for _, r := range f.records {
		b, ok := byID[r.BillID]
		if !ok || b.UserID != userID || r.Category != category {
			continue
		}
		out.Total += b.Amount
		out.Count++
	}
	if out.Count > 0 {
		out.Average = out.Total / float64(out.Count)
	}
	return out, nil
}

func (f *fakeStore) GetTopExpenses(_ context.Context, userID string, limit int) ([]model.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Bill
	for _, b := range f.bills {
		if b.UserID == userID && b.Type == model.TypeExpense {
			out = append(out, *b)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) GetRecentBills(_ context.Context, userID string, limit int) ([]model.Bill, error) {
	return f.GetTopExpenses(context.Background(), userID, limit)
}

func newConversation(store *fakeStore) *Conversation {
	learner := memory.NewLearner(store)
	chain := hybrid.DefaultChain(learner, nil)
	return NewConversation(store, learner, chain)
}

func TestConversationPendingFlow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	conv := newConversation(store)

	reply, err := conv.Advance(ctx, "u1", "Spent 499")
	require.NoError(t, err)
	assert.Equal(t, model.ActionSaveTransaction, reply.Intent.Action)
	require.NotNil(t, reply.Pending)
	assert.Equal(t, 499.0, reply.Pending.Amount)
	assert.Empty(t, store.bills, "nothing persisted until a category arrives")
	assert.NotNil(t, conv.Pending("u1"))
	assert.InDelta(t, 0.55, reply.Confidence, 0.001)

	reply, err = conv.Advance(ctx, "u1", "dining")
	require.NoError(t, err)
	assert.Equal(t, model.ActionCompletePending, reply.Intent.Action)
	// "dining" is a base vocabulary keyword, so it resolves to Food.
	assert.Equal(t, "Food", reply.Intent.Category)
	assert.Nil(t, conv.Pending("u1"), "pending state cleared")

	require.Len(t, store.bills, 1)
	assert.Equal(t, 499.0, store.bills[0].Amount)
	assert.Equal(t, "chat", store.bills[0].Source)
	require.Len(t, store.records, 1)
	assert.Equal(t, "Food", store.records[0].Category)

	// The learner picked up the association.
	mem := store.memories["u1"]
	require.NotNil(t, mem)
	assert.Equal(t, "Food", mem.AmountBuckets[4])
}

func TestConversationImmediateSave(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	conv := newConversation(store)

	reply, err := conv.Advance(ctx, "u1", "spent 250 at Cafe Blue for lunch")
	require.NoError(t, err)
	assert.Nil(t, reply.Pending)
	assert.Equal(t, "Food", reply.Intent.Category)
	assert.Equal(t, "Cafe Blue", reply.Intent.Merchant)
	require.Len(t, store.bills, 1)
	assert.Equal(t, model.TypeExpense, store.bills[0].Type)
	// Amount and category resolved, merchant known.
	assert.InDelta(t, 0.93, reply.Confidence, 0.001)
}

func TestConversationUnparsedCategoryTitleCased(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	conv := newConversation(store)

	_, err := conv.Advance(ctx, "u1", "paid 1200")
	require.NoError(t, err)
	require.NotNil(t, conv.Pending("u1"))

	reply, err := conv.Advance(ctx, "u1", "house rent")
	require.NoError(t, err)
	assert.Equal(t, "House Rent", reply.Intent.Category)
	require.Len(t, store.records, 1)
	assert.Equal(t, "House Rent", store.records[0].Category)
}

func TestConversationValidation(t *testing.T) {
	ctx := context.Background()
	conv := newConversation(newFakeStore())

	t.Run("empty message", func(t *testing.T) {
		_, err := conv.Advance(ctx, "u1", "   ")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrEmptyMessage)
		var userErr *common.UserError
		assert.ErrorAs(t, err, &userErr)
	})

	t.Run("verb without amount", func(t *testing.T) {
		_, err := conv.Advance(ctx, "u1", "spent some money")
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})
}

func TestConversationQueries(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	conv := newConversation(store)

	_, err := conv.Advance(ctx, "u1", "spent 250 at Cafe Blue for lunch")
	require.NoError(t, err)
	_, err = conv.Advance(ctx, "u1", "spent 900 petrol refill")
	require.NoError(t, err)

	t.Run("summary", func(t *testing.T) {
		reply, err := conv.Advance(ctx, "u1", "show summary")
		require.NoError(t, err)
		assert.Equal(t, model.ActionQuery, reply.Intent.Action)
		assert.Contains(t, reply.Message, "expense")
		assert.Contains(t, reply.Message, "1150.00")
	})

	t.Run("top expenses", func(t *testing.T) {
		reply, err := conv.Advance(ctx, "u1", "show my top expenses")
		require.NoError(t, err)
		assert.Contains(t, reply.Message, "900.00")
	})

	t.Run("category question", func(t *testing.T) {
		reply, err := conv.Advance(ctx, "u1", "how much on food")
		require.NoError(t, err)
		assert.Contains(t, reply.Message, "Food")
		assert.Contains(t, reply.Message, "250.00")
	})

	t.Run("help", func(t *testing.T) {
		reply, err := conv.Advance(ctx, "u1", "help")
		require.NoError(t, err)
		assert.Equal(t, model.ActionHelp, reply.Intent.Action)
	})

	t.Run("unknown", func(t *testing.T) {
		reply, err := conv.Advance(ctx, "u1", "lorem ipsum dolor")
		require.NoError(t, err)
		assert.Equal(t, model.ActionUnknown, reply.Intent.Action)
		assert.InDelta(t, 0.3, reply.Confidence, 0.001)
	})
}

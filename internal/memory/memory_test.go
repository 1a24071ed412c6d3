package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/model"
)

type fakeStore struct {
	mu       sync.Mutex
	memories map[string]*model.UserMemory
	saveErr  error
	failures int
}

func newFakeStore() *fakeStore {
	return &fakeStore{memories: make(map[string]*model.UserMemory)}
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
	if f.failures > 0 {
		f.failures--
		return f.saveErr
	}
	f.memories[userID] = mem
	return nil
}

func TestLearnerLearn(t *testing.T) {
	ctx := context.Background()

	t.Run("stores merchant keywords and bucket", func(t *testing.T) {
		store := newFakeStore()
		learner := NewLearner(store)

		err := learner.Learn(ctx, "u1", "Swiggy", "lunch order biryani", 450, "food")
		require.NoError(t, err)

		mem := store.memories["u1"]
		require.NotNil(t, mem)
		assert.Equal(t, "Food", mem.MerchantMap["swiggy"])
		assert.Equal(t, "Food", mem.KeywordMap["lunch"])
		assert.Equal(t, "Food", mem.KeywordMap["biryani"])
		assert.Equal(t, "Food", mem.AmountBuckets[4])
	})

	t.Run("short words are skipped", func(t *testing.T) {
		store := newFakeStore()
		learner := NewLearner(store)

		err := learner.Learn(ctx, "u1", "", "bus to hub", 50, "travel")
		require.NoError(t, err)

		mem := store.memories["u1"]
		assert.Empty(t, mem.KeywordMap)
		assert.Equal(t, "Travel", mem.AmountBuckets[0])
	})

	t.Run("relearning overwrites the association", func(t *testing.T) {
		store := newFakeStore()
		learner := NewLearner(store)

		require.NoError(t, learner.Learn(ctx, "u1", "DMart", "monthly groceries", 2100, "groceries"))
		require.NoError(t, learner.Learn(ctx, "u1", "DMart", "", 0, "shopping"))

		assert.Equal(t, "Shopping", store.memories["u1"].MerchantMap["dmart"])
		assert.Equal(t, "Groceries", store.memories["u1"].KeywordMap["monthly"])
	})

	t.Run("category is title-cased", func(t *testing.T) {
		store := newFakeStore()
		learner := NewLearner(store)

		require.NoError(t, learner.Learn(ctx, "u1", "pvr", "", 0, "movies and fun"))
		assert.Equal(t, "Movies And Fun", store.memories["u1"].MerchantMap["pvr"])
	})

	t.Run("missing category fails", func(t *testing.T) {
		learner := NewLearner(newFakeStore())
		err := learner.Learn(ctx, "u1", "store", "", 0, "   ")
		assert.Error(t, err)
	})

	t.Run("save retries transient failures", func(t *testing.T) {
		store := newFakeStore()
		store.saveErr = fmt.Errorf("database is locked")
		store.failures = 2
		learner := NewLearner(store)

		err := learner.Learn(ctx, "u1", "uber", "airport drop", 320, "travel")
		require.NoError(t, err)
		assert.Equal(t, "Travel", store.memories["u1"].MerchantMap["uber"])
	})
}

func TestLearnerSuggest(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*Learner, *fakeStore) {
		t.Helper()
		store := newFakeStore()
		learner := NewLearner(store)
		require.NoError(t, learner.Learn(ctx, "u1", "Swiggy", "lunch biryani", 450, "food"))
		require.NoError(t, learner.Learn(ctx, "u1", "Indian Oil", "petrol full tank", 2000, "fuel"))
		return learner, store
	}

	t.Run("merchant match dominates", func(t *testing.T) {
		learner, _ := seed(t)

		got, err := learner.Suggest(ctx, "u1", "Swiggy", "", 0)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "Food", got[0].Category)
		// merchant (5) + base "swiggy" in merchant (2), scaled by 20.
		assert.InDelta(t, 140.0, got[0].Score, 0.001)
	})

	t.Run("keyword and bucket stack", func(t *testing.T) {
		learner, _ := seed(t)

		got, err := learner.Suggest(ctx, "u1", "", "biryani takeaway", 480)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "Food", got[0].Category)
		// keyword biryani (1) + bucket 4 (1), scaled by 20.
		assert.InDelta(t, 40.0, got[0].Score, 0.001)
	})

	t.Run("base knowledge covers unseen users", func(t *testing.T) {
		learner := NewLearner(newFakeStore())

		got, err := learner.Suggest(ctx, "fresh", "Apollo Pharmacy", "pharmacy bill", 0)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "Health", got[0].Category)
	})

	t.Run("no signals yields empty suggestions", func(t *testing.T) {
		learner := NewLearner(newFakeStore())

		got, err := learner.Suggest(ctx, "fresh", "", "zzz qqq", 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ranked by score descending", func(t *testing.T) {
		store := newFakeStore()
		learner := NewLearner(store)
		require.NoError(t, learner.Learn(ctx, "u1", "alpha", "", 0, "zeta"))
		require.NoError(t, learner.Learn(ctx, "u1", "beta", "", 100, "alpha"))

		got, err := learner.Suggest(ctx, "u1", "alpha", "", 150)
		require.NoError(t, err)
		require.Len(t, got, 2)
		// Both scored: merchant match (Zeta, 5) vs bucket match (Alpha, 1).
		assert.Equal(t, "Zeta", got[0].Category)
		assert.Equal(t, "Alpha", got[1].Category)
	})
}

func TestLearnerSuggestBucketBoundary(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	learner := NewLearner(store)

	require.NoError(t, learner.Learn(ctx, "u1", "", "", 499, "food"))

	// 400-499.99 share bucket 4; 500 falls in bucket 5.
	got, err := learner.Suggest(ctx, "u1", "", "", 400)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Food", got[0].Category)

	got, err = learner.Suggest(ctx, "u1", "", "", 500)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLearnerAllCategories(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	learner := NewLearner(store)

	require.NoError(t, learner.Learn(ctx, "u1", "gym", "membership", 0, "fitness"))

	got, err := learner.AllCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Contains(t, got, "Fitness")
	assert.Contains(t, got, "Food")
	assert.Contains(t, got, "Others")
	assert.IsIncreasing(t, got)
}

func TestLearnerStats(t *testing.T) {
	ctx := context.Background()
	learner := NewLearner(newFakeStore())

	stats, err := learner.Stats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.MerchantLinks)

	require.NoError(t, learner.Learn(ctx, "u1", "Swiggy", "lunch biryani", 450, "food"))

	stats, err = learner.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MerchantLinks)
	assert.Equal(t, 2, stats.KeywordLinks)
	assert.Equal(t, 1, stats.AmountPatterns)
}

func TestMatchBaseCategory(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "food keyword", text: "dinner at a restaurant downtown", want: "Food"},
		{name: "travel keyword", text: "uber ride home", want: "Travel"},
		{name: "multi-word keyword", text: "renewed amazon prime yearly", want: "Subscriptions"},
		{name: "substring does not match", text: "carpool with friends", want: ""},
		{name: "no match", text: "miscellaneous stuff", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchBaseCategory(tt.text))
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Food", TitleCase("FOOD"))
	assert.Equal(t, "Eating Out", TitleCase("eating out"))
	assert.Equal(t, "", TitleCase("   "))
}

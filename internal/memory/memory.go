package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hridayan/khata/internal/common"
	"github.com/hridayan/khata/internal/model"
)

// Weights applied per matched signal. The raw score is multiplied by
// scoreScale before ranking, so a single merchant match lands at 100.
const (
	merchantWeight     = 5.0
	keywordWeight      = 1.0
	bucketWeight       = 1.0
	baseTextWeight     = 1.0
	baseMerchantWeight = 2.0
	scoreScale         = 20.0

	// Keywords shorter than this carry no signal (articles, units, "the").
	minKeywordLength = 4

	bucketSize = 100.0
)

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

// Store persists per-user memories. LoadUserMemory returns
// common.ErrNotFound for users that have never learned anything.
type Store interface {
	LoadUserMemory(ctx context.Context, userID string) (*model.UserMemory, error)
	SaveUserMemory(ctx context.Context, userID string, mem *model.UserMemory) error
}

// Learner is the per-user online category memory. Learning overwrites the
// existing association for a merchant, keyword or amount bucket, so the
// memory always reflects the user's most recent correction.
type Learner struct {
	store Store

	mu      sync.Mutex
	userMus map[string]*sync.Mutex
}

// NewLearner creates a learner backed by the given store.
func NewLearner(store Store) *Learner {
	return &Learner{
		store:   store,
		userMus: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing learn/suggest for one user.
func (l *Learner) userLock(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	mu, ok := l.userMus[userID]
	if !ok {
		mu = &sync.Mutex{}
		l.userMus[userID] = mu
	}
	return mu
}

func (l *Learner) load(ctx context.Context, userID string) (*model.UserMemory, error) {
	mem, err := l.store.LoadUserMemory(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return model.NewUserMemory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading memory for user %s: %w", userID, err)
	}
	mem.Normalize()
	return mem, nil
}

// Learn records that the given merchant, text keywords and amount bucket
// belong to category. The category is title-cased before storing so "food"
// and "Food" converge on one label.
func (l *Learner) Learn(ctx context.Context, userID, merchant, text string, amount float64, category string) error {
	if userID == "" {
		return fmt.Errorf("userID is required")
	}
	category = TitleCase(strings.TrimSpace(category))
	if category == "" {
		return fmt.Errorf("category is required")
	}

	mu := l.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	mem, err := l.load(ctx, userID)
	if err != nil {
		return err
	}

	if m := strings.ToLower(strings.TrimSpace(merchant)); m != "" {
		mem.MerchantMap[m] = category
	}

	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) >= minKeywordLength {
			mem.KeywordMap[word] = category
		}
	}

	if amount > 0 {
		mem.AmountBuckets[bucketFor(amount)] = category
	}

	saveErr := common.WithRetry(ctx, func() error {
		return l.store.SaveUserMemory(ctx, userID, mem)
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
	if saveErr != nil {
		return fmt.Errorf("saving memory for user %s: %w", userID, saveErr)
	}
	return nil
}

// Suggest scores every known category against the merchant, text and amount
// and returns all non-zero candidates, highest first. An empty result means
// nothing in memory or the base vocabulary matched.
func (l *Learner) Suggest(ctx context.Context, userID, merchant, text string, amount float64) (model.Suggestions, error) {
	mu := l.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	mem, err := l.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	lowMerchant := strings.ToLower(strings.TrimSpace(merchant))
	lowText := strings.ToLower(text)

	scores := make(map[string]float64)

	if cat, ok := mem.MerchantMap[lowMerchant]; ok && lowMerchant != "" {
		scores[cat] += merchantWeight
	}

	for _, word := range wordPattern.FindAllString(lowText, -1) {
		if len(word) < minKeywordLength {
			continue
		}
		if cat, ok := mem.KeywordMap[word]; ok {
			scores[cat] += keywordWeight
		}
	}

	if amount > 0 {
		if cat, ok := mem.AmountBuckets[bucketFor(amount)]; ok {
			scores[cat] += bucketWeight
		}
	}

	for _, cat := range BaseCategories() {
		for _, kw := range baseKnowledge[cat] {
			if strings.Contains(lowText, kw) {
				scores[cat] += baseTextWeight
			}
			if lowMerchant != "" && strings.Contains(lowMerchant, kw) {
				scores[cat] += baseMerchantWeight
			}
		}
	}

	suggestions := make(model.Suggestions, 0, len(scores))
	for cat, raw := range scores {
		suggestions = append(suggestions, model.Suggestion{
			Category: cat,
			Score:    raw * scoreScale,
		})
	}
	suggestions.Sort()
	return suggestions, nil
}

// AllCategories returns every category the user's memory knows about plus the
// base vocabulary, deduplicated and sorted.
func (l *Learner) AllCategories(ctx context.Context, userID string) ([]string, error) {
	mem, err := l.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, cat := range BaseCategories() {
		seen[cat] = struct{}{}
	}
	for _, cat := range mem.MerchantMap {
		seen[cat] = struct{}{}
	}
	for _, cat := range mem.KeywordMap {
		seen[cat] = struct{}{}
	}
	for _, cat := range mem.AmountBuckets {
		seen[cat] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out, nil
}

// Stats reports how much the user's memory has learned.
func (l *Learner) Stats(ctx context.Context, userID string) (model.MemoryStats, error) {
	mem, err := l.load(ctx, userID)
	if err != nil {
		return model.MemoryStats{}, err
	}
	return model.MemoryStats{
		MerchantLinks:  len(mem.MerchantMap),
		KeywordLinks:   len(mem.KeywordMap),
		AmountPatterns: len(mem.AmountBuckets),
	}, nil
}

func bucketFor(amount float64) int {
	return int(math.Floor(amount / bucketSize))
}

// TitleCase capitalizes the first letter of each space-separated word and
// lowercases the rest, matching how learned categories are stored.
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hridayan/khata/internal/classifier"
	"github.com/hridayan/khata/internal/memory"
)

// Query carries everything a resolver may score a purchase on.
type Query struct {
	UserID   string
	Merchant string
	Text     string
	Amount   float64
}

// Resolver is one link in the category resolution chain. ok reports whether
// this resolver had an answer; the chain moves on when it did not.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, q Query) (category string, ok bool, err error)
}

// Chain tries each resolver in order and returns the first answer. An
// exhausted chain returns ok=false, not an error.
type Chain struct {
	resolvers []Resolver
}

// NewChain builds a resolution chain in the given priority order.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// DefaultChain is the standard priority order: category names the user
// already uses, then the built-in vocabulary, then the trained model. clf
// may be nil.
func DefaultChain(learner *memory.Learner, clf classifier.Classifier) *Chain {
	resolvers := []Resolver{
		&KnownCategoriesResolver{learner: learner},
		&BaseKnowledgeResolver{},
	}
	if clf != nil {
		resolvers = append(resolvers, &ClassifierResolver{clf: clf})
	}
	return NewChain(resolvers...)
}

// Resolve walks the chain. Resolver errors abort the walk.
func (c *Chain) Resolve(ctx context.Context, q Query) (string, bool, error) {
	for _, r := range c.resolvers {
		cat, ok, err := r.Resolve(ctx, q)
		if err != nil {
			return "", false, fmt.Errorf("resolver %s: %w", r.Name(), err)
		}
		if ok {
			slog.Debug("category resolved", "resolver", r.Name(), "category", cat)
			return cat, true, nil
		}
	}
	return "", false, nil
}

// KnownCategoriesResolver matches category names the user already uses
// against the text. "lunch under food" resolves to Food when Food is one of
// the user's categories.
type KnownCategoriesResolver struct {
	learner *memory.Learner
}

func (r *KnownCategoriesResolver) Name() string { return "known-categories" }

func (r *KnownCategoriesResolver) Resolve(ctx context.Context, q Query) (string, bool, error) {
	cats, err := r.learner.AllCategories(ctx, q.UserID)
	if err != nil {
		return "", false, err
	}

	low := strings.ToLower(q.Merchant + " " + q.Text)
	for _, cat := range cats {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(cat)) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(low) {
			return cat, true, nil
		}
	}
	return "", false, nil
}

// BaseKnowledgeResolver answers from the built-in category vocabulary.
type BaseKnowledgeResolver struct{}

func (r *BaseKnowledgeResolver) Name() string { return "base-knowledge" }

func (r *BaseKnowledgeResolver) Resolve(_ context.Context, q Query) (string, bool, error) {
	if cat := memory.MatchBaseCategory(strings.TrimSpace(q.Merchant + " " + q.Text)); cat != "" {
		return cat, true, nil
	}
	return "", false, nil
}

// ClassifierResolver answers with the model's top prediction when the model
// is reasonably sure.
type ClassifierResolver struct {
	clf classifier.Classifier

	// MinProbability below which the model abstains. Zero means use the
	// default.
	MinProbability float64
}

const defaultMinProbability = 0.2

func (r *ClassifierResolver) Name() string { return "classifier" }

func (r *ClassifierResolver) Resolve(_ context.Context, q Query) (string, bool, error) {
	min := r.MinProbability
	if min <= 0 {
		min = defaultMinProbability
	}

	preds, err := r.clf.Predict(q.Text, 1)
	if err != nil {
		return "", false, err
	}
	if len(preds) == 0 || preds[0].Probability < min {
		return "", false, nil
	}
	return memory.TitleCase(preds[0].Category), true, nil
}

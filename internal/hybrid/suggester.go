package hybrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/hridayan/khata/internal/classifier"
	"github.com/hridayan/khata/internal/memory"
	"github.com/hridayan/khata/internal/model"
)

const (
	// DefaultBlendWeight favors the trained model over the per-user
	// heuristics when both have an opinion.
	DefaultBlendWeight = 0.65

	// How many model predictions participate in the blend.
	classifierTopK = 3
)

// Result explains a blended suggestion: the winning category plus every
// intermediate signal, so callers can show their work.
type Result struct {
	FinalCategory string
	FinalScore    float64
	// Scores holds the blended score per candidate category, 0-1-ish.
	Scores       map[string]float64
	ML           []classifier.Prediction
	Heuristic    model.Suggestions
	ComposedText string
}

// Suggester blends the trained classifier with the user's category memory.
// The classifier may be nil, in which case blending degrades to the
// heuristic signal alone.
type Suggester struct {
	learner     *memory.Learner
	clf         classifier.Classifier
	blendWeight float64
}

// NewSuggester wires a suggester. clf may be nil when no model is installed.
func NewSuggester(learner *memory.Learner, clf classifier.Classifier) *Suggester {
	return &Suggester{
		learner:     learner,
		clf:         clf,
		blendWeight: DefaultBlendWeight,
	}
}

// ComposeText joins the item, location and payment method into the single
// text the classifier and keyword heuristics score.
func ComposeText(item, location, paymentMethod string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{item, location, paymentMethod} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Suggest scores the purchase against both signals and returns the blend.
// The heuristic side treats location as the merchant. An empty result
// category means neither signal matched anything.
func (s *Suggester) Suggest(ctx context.Context, userID, item, location, paymentMethod string, amount float64) (*Result, error) {
	composed := ComposeText(item, location, paymentMethod)

	heuristic, err := s.learner.Suggest(ctx, userID, location, composed, amount)
	if err != nil {
		return nil, fmt.Errorf("heuristic suggestions: %w", err)
	}

	var ml []classifier.Prediction
	if s.clf != nil {
		ml, err = s.clf.Predict(composed, classifierTopK)
		if err != nil {
			return nil, fmt.Errorf("model predictions: %w", err)
		}
	}

	scores := make(map[string]float64)
	for _, p := range ml {
		cat := memory.TitleCase(p.Category)
		scores[cat] = p.Probability * s.blendWeight
	}
	for _, h := range heuristic {
		cat := memory.TitleCase(h.Category)
		contribution := h.Score / 100.0
		if s.clf != nil {
			contribution *= 1 - s.blendWeight
		}
		scores[cat] += contribution
	}

	result := &Result{
		Scores:       scores,
		ML:           ml,
		Heuristic:    heuristic,
		ComposedText: composed,
	}

	ranked := make(model.Suggestions, 0, len(scores))
	for cat, score := range scores {
		ranked = append(ranked, model.Suggestion{Category: cat, Score: score})
	}
	if top := ranked.Top(); top != nil {
		result.FinalCategory = top.Category
		result.FinalScore = top.Score
	}
	return result, nil
}

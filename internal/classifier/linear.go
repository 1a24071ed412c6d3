package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hridayan/khata/internal/common"
)

// Artifact file names expected inside the model directory. These are the
// export format of the offline training job: a tf-idf vectorizer plus a
// multinomial logistic regression.
const (
	vectorizerFile = "vectorizer.json"
	weightsFile    = "model.json"
	labelsFile     = "labels.json"
)

// Tokens are two or more word characters; single letters carry no signal.
var tokenPattern = regexp.MustCompile(`\w\w+`)

type vectorizerArtifact struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

type modelArtifact struct {
	Weights    [][]float64 `json:"weights"`
	Intercepts []float64   `json:"intercepts"`
}

// LinearClassifier performs inference for a tf-idf + multinomial logistic
// regression model trained offline. It holds no mutable state after loading
// and is safe for concurrent use.
type LinearClassifier struct {
	vocabulary map[string]int
	idf        []float64
	weights    [][]float64
	intercepts []float64
	labels     []string
}

// Load reads the model artifacts from dir. A missing directory or missing
// artifact file returns common.ErrModelNotFound so callers can degrade to
// heuristics-only mode; unreadable or inconsistent artifacts return
// common.ErrModelCorrupted.
func Load(dir string) (*LinearClassifier, error) {
	var vec vectorizerArtifact
	if err := readArtifact(filepath.Join(dir, vectorizerFile), &vec); err != nil {
		return nil, err
	}

	var mod modelArtifact
	if err := readArtifact(filepath.Join(dir, weightsFile), &mod); err != nil {
		return nil, err
	}

	var labels []string
	if err := readArtifact(filepath.Join(dir, labelsFile), &labels); err != nil {
		return nil, err
	}

	c := &LinearClassifier{
		vocabulary: vec.Vocabulary,
		idf:        vec.IDF,
		weights:    mod.Weights,
		intercepts: mod.Intercepts,
		labels:     labels,
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func readArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", common.ErrModelNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrModelCorrupted, filepath.Base(path), err)
	}
	return nil
}

func (c *LinearClassifier) validate() error {
	n := len(c.vocabulary)
	if n == 0 || len(c.labels) == 0 {
		return fmt.Errorf("%w: empty vocabulary or labels", common.ErrModelCorrupted)
	}
	if len(c.idf) != n {
		return fmt.Errorf("%w: idf has %d entries, vocabulary has %d", common.ErrModelCorrupted, len(c.idf), n)
	}
	if len(c.weights) != len(c.labels) {
		return fmt.Errorf("%w: %d weight rows for %d labels", common.ErrModelCorrupted, len(c.weights), len(c.labels))
	}
	if len(c.intercepts) != len(c.labels) {
		return fmt.Errorf("%w: %d intercepts for %d labels", common.ErrModelCorrupted, len(c.intercepts), len(c.labels))
	}
	for i, row := range c.weights {
		if len(row) != n {
			return fmt.Errorf("%w: weight row %d has %d columns, want %d", common.ErrModelCorrupted, i, len(row), n)
		}
	}
	for _, idx := range c.vocabulary {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: vocabulary index %d out of range", common.ErrModelCorrupted, idx)
		}
	}
	return nil
}

// Labels returns the model's category labels in training order.
func (c *LinearClassifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Predict vectorizes text and returns the topK categories by softmax
// probability. Text with no in-vocabulary tokens still produces a
// prediction, driven entirely by the intercepts.
func (c *LinearClassifier) Predict(text string, topK int) ([]Prediction, error) {
	if topK <= 0 {
		return nil, nil
	}

	x := c.vectorize(text)

	logits := make([]float64, len(c.labels))
	for i, row := range c.weights {
		z := c.intercepts[i]
		for j, v := range x {
			z += row[j] * v
		}
		logits[i] = z
	}

	probs := softmax(logits)

	preds := make([]Prediction, len(c.labels))
	for i, label := range c.labels {
		preds[i] = Prediction{Category: label, Probability: probs[i]}
	}
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Probability != preds[j].Probability {
			return preds[i].Probability > preds[j].Probability
		}
		return preds[i].Category < preds[j].Category
	})

	if topK > len(preds) {
		topK = len(preds)
	}
	return preds[:topK], nil
}

// vectorize builds the l2-normalized tf-idf vector for text, mirroring the
// transform the training job applied.
func (c *LinearClassifier) vectorize(text string) map[int]float64 {
	counts := make(map[int]float64)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if idx, ok := c.vocabulary[tok]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, tf := range counts {
		v := tf * c.idf[idx]
		counts[idx] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, z := range logits[1:] {
		if z > max {
			max = z
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, z := range logits {
		out[i] = math.Exp(z - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

package classifier

// Prediction is one category candidate from the trained model, with a
// softmax probability in [0, 1].
type Prediction struct {
	Category    string
	Probability float64
}

// Classifier scores free text against the trained category model. Predict
// returns at most topK predictions, highest probability first.
type Classifier interface {
	Predict(text string, topK int) ([]Prediction, error)
}

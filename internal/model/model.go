// Package model loads the pre-trained fraud classifier and its fitted
// label encoders from a JSON artifact bundle.
//
// The bundle is trained offline, loaded once per process, and never
// mutated afterwards, so it is safe to share across concurrent requests.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/mbd888/fraudscope/internal/inference"
)

// ErrDimensionMismatch is returned when a weight vector does not match
// the fixed feature schema width.
var ErrDimensionMismatch = errors.New("model weights do not match feature schema width")

// Model scores preprocessed feature vectors. Both calls are vectorized:
// one invocation scores the whole batch.
type Model interface {
	// PredictProba returns the fraud probability in [0,1] for each row.
	PredictProba(rows []inference.Vector) ([]float64, error)
	// Predict returns the 0/1 class for each row.
	Predict(rows []inference.Vector) ([]int, error)
}

// Logistic is a logistic-regression classifier over the nine-feature vector.
type Logistic struct {
	Weights   []float64 `json:"weights"` // one per feature, in inference.FeatureOrder
	Bias      float64   `json:"bias"`
	Threshold float64   `json:"threshold"` // probability cutoff for class 1
}

var _ Model = (*Logistic)(nil)

// Validate checks the classifier shape against the feature schema.
func (m *Logistic) Validate() error {
	if len(m.Weights) != inference.NumFeatures {
		return fmt.Errorf("%w: got %d weights, want %d", ErrDimensionMismatch, len(m.Weights), inference.NumFeatures)
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0,1), got %v", m.Threshold)
	}
	return nil
}

// PredictProba returns sigmoid(w·x + b) per row.
func (m *Logistic) PredictProba(rows []inference.Vector) ([]float64, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	probs := make([]float64, len(rows))
	for i, row := range rows {
		z := m.Bias
		for j, w := range m.Weights {
			z += w * row[j]
		}
		probs[i] = sigmoid(z)
	}
	return probs, nil
}

// Predict thresholds PredictProba at the fitted cutoff.
func (m *Logistic) Predict(rows []inference.Vector) ([]int, error) {
	probs, err := m.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	preds := make([]int, len(probs))
	for i, p := range probs {
		if p >= m.Threshold {
			preds[i] = 1
		}
	}
	return preds, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/fraudscope/internal/inference"
)

func TestLogisticValidate(t *testing.T) {
	m := &Logistic{Weights: make([]float64, inference.NumFeatures), Threshold: 0.5}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid model rejected: %v", err)
	}

	bad := &Logistic{Weights: []float64{1, 2}, Threshold: 0.5}
	if err := bad.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("wrong-width weights: got %v, want ErrDimensionMismatch", err)
	}

	badCut := &Logistic{Weights: make([]float64, inference.NumFeatures), Threshold: 1.5}
	if err := badCut.Validate(); err == nil {
		t.Error("threshold outside (0,1) accepted")
	}
}

func TestLogisticPredict(t *testing.T) {
	// Weight only on the first feature: large amounts score high.
	weights := make([]float64, inference.NumFeatures)
	weights[0] = 1
	m := &Logistic{Weights: weights, Bias: -5, Threshold: 0.5}

	rows := []inference.Vector{
		{0},  // sigmoid(-5) ~ 0.007
		{10}, // sigmoid(5) ~ 0.993
	}

	probs, err := m.PredictProba(rows)
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.Less(t, probs[0], 0.5)
	assert.Greater(t, probs[1], 0.5)

	preds, err := m.Predict(rows)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, preds)
}

func TestLoadArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"model": {
			"weights": [0.1, 0, 0, 0, 0, 0, 0, 0.2, 0],
			"bias": -1.5,
			"threshold": 0.5
		},
		"encoders": {
			"TX_AMOUNT_BIN": {"classes": ["0-10", "10-50", "50-100"]}
		}
	}`), 0o644))

	a, err := LoadArtifact(path)
	require.NoError(t, err)
	require.NotNil(t, a.Model)

	// CategoricalCols falls back to the encoder column names.
	assert.Equal(t, []string{"TX_AMOUNT_BIN"}, a.CategoricalCols)

	// Encoder indexes are usable immediately after load.
	code, ok := a.Encoders.Encode("TX_AMOUNT_BIN", "10-50")
	assert.True(t, ok)
	assert.Equal(t, 1.0, code)
}

func TestLoadArtifactErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadArtifact(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"model": {"weights": [1], "threshold": 0.5}}`), 0o644))
	_, err = LoadArtifact(bad)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o644))
	_, err = LoadArtifact(empty)
	assert.Error(t, err)
}

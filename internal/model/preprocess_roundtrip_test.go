package model

import (
	"strconv"
	"testing"

	"github.com/mbd888/fraudscope/internal/inference"
)

// Re-running preprocessing on its own (stringified) output must not change
// any value: encoded categories stay at their codes, numerics parse back.
func TestPreprocessIdempotentWithFittedEncoders(t *testing.T) {
	encoders := EncoderSet{
		"TX_AMOUNT_BIN": NewLabelEncoder([]string{
			"0-10", "10-50", "50-100", "100-500", "500-1000", "1000-5000", "5000+",
		}),
	}

	row := map[string]string{
		"TX_AMOUNT": "120.0", "TX_TIME_SECONDS": "5000", "TX_TIME_DAYS": "100",
		"TX_HOUR": "14", "TX_WEEKDAY": "2", "TX_MONTH": "5",
		"IS_WEEKEND": "0", "TX_AMOUNT_BIN": "100-500", "TX_COUNT": "7",
	}

	first := inference.Preprocess(row, encoders)

	encoded := make(map[string]string, len(inference.FeatureOrder))
	for i, field := range inference.FeatureOrder {
		encoded[field] = strconv.FormatFloat(first[i], 'f', -1, 64)
	}
	second := inference.Preprocess(encoded, encoders)

	if first != second {
		t.Errorf("preprocess not idempotent: %v then %v", first, second)
	}
	if first[7] != 3 {
		t.Errorf("TX_AMOUNT_BIN encoded to %v, want 3", first[7])
	}

	// An unknown category on the second pass still maps to the sentinel.
	encoded["TX_AMOUNT_BIN"] = "never-seen"
	third := inference.Preprocess(encoded, encoders)
	if third[7] != -1 {
		t.Errorf("unknown category encoded to %v, want -1", third[7])
	}
}

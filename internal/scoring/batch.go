// Package scoring applies the fraud classifier to uploaded batches and
// derives the aggregate statistics used for reporting.
//
// Scoring is atomic: validation happens before the model is invoked, and
// a model failure returns no partial per-row results.
package scoring

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mbd888/fraudscope/internal/inference"
	"github.com/mbd888/fraudscope/internal/model"
)

// Labels assigned from the predicted class.
const (
	LabelFraud    = "Fraud"
	LabelNotFraud = "Not Fraud"
)

// Batch is an uploaded table of raw feature rows, header-driven.
type Batch struct {
	Columns []string
	Rows    []map[string]string
}

// ModelInferenceError wraps a failure of the model call itself. The whole
// batch fails; the user retries with different input.
type ModelInferenceError struct {
	Err error
}

func (e *ModelInferenceError) Error() string {
	return fmt.Sprintf("model inference failed: %v", e.Err)
}

func (e *ModelInferenceError) Unwrap() error { return e.Err }

// MissingValues is the non-fatal warning raised when cell values were
// absent and per-field defaults were substituted.
type MissingValues struct {
	Rows    int      `json:"rows"`    // rows that needed at least one default
	Columns []string `json:"columns"` // affected columns, in schema order
}

// Prediction is one scored row joined back to selected raw fields.
type Prediction struct {
	TXAmount   float64    `json:"TX_AMOUNT"`
	TXHour     int        `json:"TX_HOUR"`
	TXWeekday  int        `json:"TX_WEEKDAY"`
	CustomerID string     `json:"CUSTOMER_ID,omitempty"` // only when the upload carried it
	TXDatetime *time.Time `json:"TX_DATETIME,omitempty"` // reconstructed; nil when unavailable

	FraudProbability float64 `json:"fraud_probability"`
	Prediction       int     `json:"prediction"`
	PredictionLabel  string  `json:"prediction_label"`

	// Elapsed-time inputs retained for timestamp reconstruction.
	TXTimeSeconds int64 `json:"-"`
	TXTimeDays    int   `json:"-"`
}

// BatchResult is the ordered scored batch plus any recoverable warning.
type BatchResult struct {
	Results []Prediction   `json:"results"`
	Warning *MissingValues `json:"warning,omitempty"`
}

// ScoreBatch validates, preprocesses and scores a whole batch in one
// vectorized pass.
//
// All nine raw-feature columns must be present up front; otherwise a
// *inference.SchemaError listing every missing name is returned and the
// model is never called. Missing cell values are substituted with
// per-field defaults and surfaced as a MissingValues warning on the
// result. The input batch is not mutated.
func ScoreBatch(ctx context.Context, batch *Batch, m model.Model, encoders model.EncoderSet) (*BatchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	diff := inference.SchemaDiff(batch.Columns)
	if !diff.Complete() {
		return nil, &inference.SchemaError{Source: "batch upload", Missing: diff.Missing}
	}

	filled, warning := fillDefaults(batch.Rows)

	vectors := inference.PreprocessBatch(filled, encoders)

	probs, err := m.PredictProba(vectors)
	if err != nil {
		return nil, &ModelInferenceError{Err: err}
	}
	preds, err := m.Predict(vectors)
	if err != nil {
		return nil, &ModelInferenceError{Err: err}
	}

	results := make([]Prediction, len(filled))
	for i, row := range filled {
		p := Prediction{
			TXAmount:         parseFloat(row["TX_AMOUNT"]),
			TXHour:           parseInt(row["TX_HOUR"]),
			TXWeekday:        parseInt(row["TX_WEEKDAY"]),
			CustomerID:       row["CUSTOMER_ID"],
			TXTimeSeconds:    int64(parseFloat(row["TX_TIME_SECONDS"])),
			TXTimeDays:       parseInt(row["TX_TIME_DAYS"]),
			FraudProbability: probs[i],
			Prediction:       preds[i],
			PredictionLabel:  LabelNotFraud,
		}
		if preds[i] == 1 {
			p.PredictionLabel = LabelFraud
		}
		results[i] = p
	}

	return &BatchResult{Results: results, Warning: warning}, nil
}

// fillDefaults copies the rows, substituting per-field defaults for empty
// required cells. Returns nil warning when every cell was present.
func fillDefaults(rows []map[string]string) ([]map[string]string, *MissingValues) {
	filled := make([]map[string]string, len(rows))
	touched := make(map[string]bool)
	affectedRows := 0

	for i, row := range rows {
		cp := make(map[string]string, len(row))
		for k, v := range row {
			cp[k] = v
		}
		rowTouched := false
		for _, field := range inference.FeatureOrder {
			if cp[field] == "" {
				cp[field] = inference.Defaults[field]
				touched[field] = true
				rowTouched = true
			}
		}
		if rowTouched {
			affectedRows++
		}
		filled[i] = cp
	}

	if affectedRows == 0 {
		return filled, nil
	}
	var cols []string
	for _, field := range inference.FeatureOrder {
		if touched[field] {
			cols = append(cols, field)
		}
	}
	return filled, &MissingValues{Rows: affectedRows, Columns: cols}
}

// SortSuspicious returns the results ordered by descending fraud
// probability. The sort is stable: ties keep original row order.
func SortSuspicious(results []Prediction) []Prediction {
	out := make([]Prediction, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FraudProbability > out[j].FraudProbability
	})
	return out
}

// TopSuspicious returns the n most probable fraud records.
func TopSuspicious(results []Prediction, n int) []Prediction {
	sorted := SortSuspicious(results)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// Tolerate float-formatted integers ("14.0") from spreadsheet exports.
	return int(parseFloat(s))
}

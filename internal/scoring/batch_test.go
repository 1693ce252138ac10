package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/fraudscope/internal/inference"
	"github.com/mbd888/fraudscope/internal/model"
)

// probByAmount returns fixed probabilities keyed on the amount feature and
// counts invocations, so tests can assert the model was never called.
type probByAmount struct {
	probs     map[float64]float64
	threshold float64
	calls     int
	err       error
}

func (m *probByAmount) PredictProba(rows []inference.Vector) ([]float64, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = m.probs[r[0]]
	}
	return out, nil
}

func (m *probByAmount) Predict(rows []inference.Vector) ([]int, error) {
	probs, err := m.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	preds := make([]int, len(probs))
	for i, p := range probs {
		if p >= m.threshold {
			preds[i] = 1
		}
	}
	return preds, nil
}

var testEncoders = model.EncoderSet{
	"TX_AMOUNT_BIN": model.NewLabelEncoder([]string{"0-10", "10-50", "50-100", "100-500", "500-1000", "1000-5000", "5000+"}),
}

func fullRow(amount, hour, weekday string) map[string]string {
	return map[string]string{
		"TX_AMOUNT": amount, "TX_TIME_SECONDS": "0", "TX_TIME_DAYS": "0",
		"TX_HOUR": hour, "TX_WEEKDAY": weekday, "TX_MONTH": "5",
		"IS_WEEKEND": "0", "TX_AMOUNT_BIN": "100-500", "TX_COUNT": "3",
	}
}

func fullBatch(rows ...map[string]string) *Batch {
	return &Batch{Columns: inference.FeatureOrder, Rows: rows}
}

func TestScoreBatchLabelsAndOrder(t *testing.T) {
	m := &probByAmount{probs: map[float64]float64{120: 0.9, 30: 0.1}, threshold: 0.5}

	res, err := ScoreBatch(context.Background(), fullBatch(
		fullRow("120", "14", "2"),
		fullRow("30", "9", "4"),
	), m, testEncoders)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Nil(t, res.Warning)

	first := res.Results[0]
	assert.Equal(t, 120.0, first.TXAmount)
	assert.Equal(t, 14, first.TXHour)
	assert.Equal(t, 2, first.TXWeekday)
	assert.Equal(t, 1, first.Prediction)
	assert.Equal(t, LabelFraud, first.PredictionLabel)

	second := res.Results[1]
	assert.Equal(t, 0, second.Prediction)
	assert.Equal(t, LabelNotFraud, second.PredictionLabel)

	s := Summarize(res.Results)
	assert.Equal(t, 0.5, s.FraudRate)
	assert.Equal(t, 120.0, s.AvgFraudAmount)
	assert.Equal(t, "14", s.CommonHour)
	assert.Equal(t, "2", s.CommonWeekday)
}

func TestScoreBatchMissingColumnsSkipsModel(t *testing.T) {
	m := &probByAmount{probs: map[float64]float64{}, threshold: 0.5}

	batch := &Batch{
		Columns: []string{"TX_AMOUNT", "TX_WEEKDAY"},
		Rows:    []map[string]string{{"TX_AMOUNT": "10", "TX_WEEKDAY": "1"}},
	}
	_, err := ScoreBatch(context.Background(), batch, m, testEncoders)

	var schemaErr *inference.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Missing, "TX_HOUR")
	assert.Contains(t, err.Error(), "TX_HOUR")
	assert.Equal(t, 0, m.calls, "model must not run on incomplete schema")
}

func TestScoreBatchFillsDefaultsWithWarning(t *testing.T) {
	m := &probByAmount{probs: map[float64]float64{0: 0.2, 30: 0.1}, threshold: 0.5}

	row := fullRow("30", "9", "4")
	row["TX_AMOUNT"] = ""
	row["TX_MONTH"] = ""
	batch := fullBatch(row, fullRow("30", "10", "1"))

	res, err := ScoreBatch(context.Background(), batch, m, testEncoders)
	require.NoError(t, err)

	require.NotNil(t, res.Warning)
	assert.Equal(t, 1, res.Warning.Rows)
	assert.Equal(t, []string{"TX_AMOUNT", "TX_MONTH"}, res.Warning.Columns)

	// The input batch is untouched.
	assert.Equal(t, "", batch.Rows[0]["TX_AMOUNT"])

	// Defaults applied: amount 0, month 1.
	assert.Equal(t, 0.0, res.Results[0].TXAmount)
}

func TestScoreBatchModelFailure(t *testing.T) {
	m := &probByAmount{err: errors.New("boom"), threshold: 0.5}

	_, err := ScoreBatch(context.Background(), fullBatch(fullRow("30", "9", "4")), m, testEncoders)

	var modelErr *ModelInferenceError
	require.ErrorAs(t, err, &modelErr)
	assert.Contains(t, err.Error(), "model inference failed")
}

func TestScoreBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &probByAmount{probs: map[float64]float64{}, threshold: 0.5}
	_, err := ScoreBatch(ctx, fullBatch(fullRow("30", "9", "4")), m, testEncoders)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.calls)
}

func TestScoreBatchEmpty(t *testing.T) {
	m := &probByAmount{probs: map[float64]float64{}, threshold: 0.5}
	res, err := ScoreBatch(context.Background(), &Batch{Columns: inference.FeatureOrder}, m, testEncoders)
	require.NoError(t, err)
	assert.Empty(t, res.Results)

	s := Summarize(res.Results)
	assert.Equal(t, 0.0, s.FraudRate)
	assert.Equal(t, ModalSentinel, s.CommonHour)
	assert.Equal(t, ModalSentinel, s.CommonWeekday)
}

func TestTopSuspiciousStable(t *testing.T) {
	results := []Prediction{
		{CustomerID: "a", FraudProbability: 0.5},
		{CustomerID: "b", FraudProbability: 0.9},
		{CustomerID: "c", FraudProbability: 0.5},
		{CustomerID: "d", FraudProbability: 0.7},
	}
	top := TopSuspicious(results, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].CustomerID)
	assert.Equal(t, "d", top[1].CustomerID)
	// Tie between a and c keeps input order.
	assert.Equal(t, "a", top[2].CustomerID)

	// n larger than the batch returns everything.
	assert.Len(t, TopSuspicious(results, 10), 4)

	// The input slice is not reordered.
	assert.Equal(t, "a", results[0].CustomerID)
}

func TestReadBatchCSV(t *testing.T) {
	input := strings.Join([]string{
		"TX_AMOUNT,TX_HOUR,TX_WEEKDAY",
		"120,14,2",
		"30,9", // short row: missing cell left empty
	}, "\n")

	batch, err := ReadBatchCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"TX_AMOUNT", "TX_HOUR", "TX_WEEKDAY"}, batch.Columns)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "2", batch.Rows[0]["TX_WEEKDAY"])
	assert.Equal(t, "", batch.Rows[1]["TX_WEEKDAY"])
}

func TestScoreOnePassesUserTXCount(t *testing.T) {
	m := &probByAmount{probs: map[float64]float64{30: 0.1}, threshold: 0.5}

	row := fullRow("30", "9", "4")
	row["TX_COUNT"] = "25"
	pred, err := ScoreOne(context.Background(), row, m, testEncoders)
	require.NoError(t, err)
	assert.Equal(t, LabelNotFraud, pred.PredictionLabel)
	assert.Greater(t, m.calls, 0)
}

package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbd888/fraudscope/internal/inference"
	"github.com/mbd888/fraudscope/internal/scoring"
)

func sampleResults() []scoring.Prediction {
	return []scoring.Prediction{
		{
			TXAmount: 120, TXHour: 14, TXWeekday: 2,
			FraudProbability: 0.91, Prediction: 1, PredictionLabel: scoring.LabelFraud,
			TXTimeDays: 100, TXTimeSeconds: 5000,
		},
		{
			TXAmount: 30, TXHour: 9, TXWeekday: 4,
			FraudProbability: 0.08, Prediction: 0, PredictionLabel: scoring.LabelNotFraud,
		},
	}
}

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, sampleResults()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"TX_AMOUNT", "TX_HOUR", "TX_WEEKDAY",
		"fraud_probability", "prediction", "prediction_label",
	}, records[0])

	assert.Equal(t, []string{"120", "14", "2", "0.910000", "1", scoring.LabelFraud}, records[1])
	assert.Equal(t, []string{"30", "9", "4", "0.080000", "0", scoring.LabelNotFraud}, records[2])
}

func TestWriteTemplateCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplateCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus two example rows")

	assert.Equal(t, inference.FeatureOrder, records[0])
	assert.Equal(t, []string{"120.0", "5000", "100", "14", "2", "5", "0", "100-500", "7"}, records[1])
	assert.Equal(t, []string{"2500.0", "36000", "150", "3", "6", "8", "1", "1000-5000", "25"}, records[2])
}

func TestBatchPDF(t *testing.T) {
	var buf bytes.Buffer
	generated := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, BatchPDF(&buf, sampleResults(), generated))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output is not a PDF")
	assert.Greater(t, buf.Len(), 1000)
}

func TestBatchPDFEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BatchPDF(&buf, nil, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestBatchPDFDoesNotMutateInput(t *testing.T) {
	results := sampleResults()
	require.Nil(t, results[0].TXDatetime)

	var buf bytes.Buffer
	require.NoError(t, BatchPDF(&buf, results, time.Now()))

	// Timestamp reconstruction happens on a copy.
	assert.Nil(t, results[0].TXDatetime)
}

func TestSinglePDF(t *testing.T) {
	input := map[string]string{
		"TX_AMOUNT": "120.0", "TX_TIME_SECONDS": "5000", "TX_TIME_DAYS": "100",
		"TX_HOUR": "14", "TX_WEEKDAY": "2", "TX_MONTH": "5",
		"IS_WEEKEND": "0", "TX_AMOUNT_BIN": "100-500", "TX_COUNT": "7",
	}
	pred := &scoring.Prediction{
		FraudProbability: 0.91, Prediction: 1, PredictionLabel: scoring.LabelFraud,
	}

	var buf bytes.Buffer
	require.NoError(t, SinglePDF(&buf, input, pred))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.50%", formatPercent(0.125))
	assert.Equal(t, "0.00%", formatPercent(0))
}

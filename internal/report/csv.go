// Package report renders scored batches as CSV exports and PDF documents.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mbd888/fraudscope/internal/inference"
	"github.com/mbd888/fraudscope/internal/scoring"
)

// resultColumns is the batch-result export layout.
var resultColumns = []string{
	"TX_AMOUNT", "TX_HOUR", "TX_WEEKDAY",
	"fraud_probability", "prediction", "prediction_label",
}

// WriteResultsCSV writes the scored batch in the fixed export layout.
func WriteResultsCSV(w io.Writer, results []scoring.Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultColumns); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			strconv.FormatFloat(r.TXAmount, 'f', -1, 64),
			strconv.Itoa(r.TXHour),
			strconv.Itoa(r.TXWeekday),
			strconv.FormatFloat(r.FraudProbability, 'f', 6, 64),
			strconv.Itoa(r.Prediction),
			r.PredictionLabel,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// templateRows are the two reference rows shipped with the template.
var templateRows = [][]string{
	{"120.0", "5000", "100", "14", "2", "5", "0", "100-500", "7"},
	{"2500.0", "36000", "150", "3", "6", "8", "1", "1000-5000", "25"},
}

// WriteTemplateCSV writes the downloadable batch input template: the nine
// required columns in schema order plus two example rows.
func WriteTemplateCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(inference.FeatureOrder); err != nil {
		return err
	}
	for _, row := range templateRows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

package report

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mbd888/fraudscope/internal/inference"
	"github.com/mbd888/fraudscope/internal/scoring"
)

const probabilityHistogramBins = 20

// BatchPDF writes the batch prediction report: title and generation
// timestamp, the KPI table, the class-count chart, the probability
// histogram, and the full per-row detail table with a reconstructed
// timestamp for rows that carried none.
func BatchPDF(w io.Writer, results []scoring.Prediction, generatedAt time.Time) error {
	rows := make([]scoring.Prediction, len(results))
	copy(rows, results)
	scoring.ReconstructTimestamps(rows)

	summary := scoring.Summarize(rows)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Batch Fraud Prediction Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Report Generated On: "+generatedAt.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	kpiRows := [][2]string{
		{"% Fraudulent Transactions", formatPercent(summary.FraudRate)},
		{"Average Fraud Amount", fmt.Sprintf("$%.2f", summary.AvgFraudAmount)},
		{"Most Common Fraud Hour", summary.CommonHour},
		{"Most Common Fraud Day (0=Mon)", summary.CommonWeekday},
	}
	writeTable(pdf, []string{"Metric", "Value"}, kpiRows, []float64{90, 60})
	pdf.Ln(6)

	fraud, notFraud := scoring.ClassCounts(rows)
	if err := embedChart(pdf, "class_counts", func() ([]byte, error) {
		return classCountChart(fraud, notFraud)
	}); err != nil {
		return err
	}

	hist := scoring.ProbabilityHistogram(rows, probabilityHistogramBins)
	if err := embedChart(pdf, "prob_hist", func() ([]byte, error) {
		return probabilityHistogramChart(hist)
	}); err != nil {
		return err
	}

	pdf.Ln(4)
	writeDetailTable(pdf, rows)

	return pdf.Output(w)
}

// SinglePDF writes the single-transaction report: verdict, probability,
// risk gauge, and the submitted feature table in schema order.
func SinglePDF(w io.Writer, input map[string]string, pred *scoring.Prediction) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Single Transaction Fraud Prediction Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Prediction: "+pred.PredictionLabel, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Fraud Probability: "+formatPercent(pred.FraudProbability), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if err := embedChart(pdf, "gauge", func() ([]byte, error) {
		return gaugeChart(pred.FraudProbability)
	}); err != nil {
		return err
	}
	pdf.Ln(4)

	featureRows := make([][2]string, 0, inference.NumFeatures)
	for _, field := range inference.FeatureOrder {
		featureRows = append(featureRows, [2]string{field, input[field]})
	}
	writeTable(pdf, []string{"Feature", "Value"}, featureRows, []float64{75, 75})

	return pdf.Output(w)
}

func embedChart(pdf *fpdf.Fpdf, name string, render func() ([]byte, error)) error {
	png, err := render()
	if err != nil {
		return err
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, 55, pdf.GetY(), 100, 0, true, opts, 0, "")
	pdf.Ln(4)
	return nil
}

func writeTable(pdf *fpdf.Fpdf, header []string, rows [][2]string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range rows {
		pdf.CellFormat(widths[0], 7, row[0], "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, row[1], "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
}

func writeDetailTable(pdf *fpdf.Fpdf, rows []scoring.Prediction) {
	widths := []float64{35, 40, 40, 55}
	header := []string{"TX_AMOUNT", "Fraud Probability", "Prediction Label", "TX_DATETIME"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, r := range rows {
		ts := "-"
		if r.TXDatetime != nil {
			ts = r.TXDatetime.Format("2006-01-02 15:04:05")
		}
		pdf.CellFormat(widths[0], 6, strconv.FormatFloat(r.TXAmount, 'f', 2, 64), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, formatPercent(r.FraudProbability), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, r.PredictionLabel, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, ts, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
}

package features

import "time"

// DatasetSummary describes an engineered dataset for the browsing page
// and the derive command's closing report.
type DatasetSummary struct {
	Rows        int       `json:"rows"`
	Customers   int       `json:"customers"`
	LabeledRows int       `json:"labeledRows"`
	FraudRows   int       `json:"fraudRows"`
	FraudRate   float64   `json:"fraudRate"` // over labeled rows; 0 when none
	MeanAmount  float64   `json:"meanAmount"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
}

// Summarize computes dataset-level statistics over engineered rows.
func Summarize(rows []Engineered) DatasetSummary {
	var s DatasetSummary
	s.Rows = len(rows)
	if len(rows) == 0 {
		return s
	}

	customers := make(map[string]struct{})
	total := 0.0
	s.From = rows[0].TXDatetime
	s.To = rows[0].TXDatetime
	for _, r := range rows {
		customers[r.CustomerID] = struct{}{}
		total += r.TXAmount
		if r.TXDatetime.Before(s.From) {
			s.From = r.TXDatetime
		}
		if r.TXDatetime.After(s.To) {
			s.To = r.TXDatetime
		}
		if r.TXFraud != nil {
			s.LabeledRows++
			if *r.TXFraud == 1 {
				s.FraudRows++
			}
		}
	}
	s.Customers = len(customers)
	s.MeanAmount = total / float64(len(rows))
	if s.LabeledRows > 0 {
		s.FraudRate = float64(s.FraudRows) / float64(s.LabeledRows)
	}
	return s
}

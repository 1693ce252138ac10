package scoring

import (
	"fmt"
	"sort"
	"time"
)

// ModalSentinel is reported for modal hour/weekday when no fraud rows exist.
const ModalSentinel = "-"

// reconstructionBase anchors timestamps rebuilt from elapsed-time fields.
var reconstructionBase = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// BatchSummary holds the report KPIs, each defined over the scored batch.
type BatchSummary struct {
	Total          int     `json:"total"`
	FraudCount     int     `json:"fraudCount"`
	FraudRate      float64 `json:"fraudRate"`      // fraudCount/total; 0 on empty batch
	AvgFraudAmount float64 `json:"avgFraudAmount"` // over fraud rows only; 0 with none
	CommonHour     string  `json:"commonHour"`     // modal fraud hour, or "-"
	CommonWeekday  string  `json:"commonWeekday"`  // modal fraud weekday (0=Mon), or "-"
}

// Summarize derives the KPI block from a scored batch.
func Summarize(results []Prediction) BatchSummary {
	s := BatchSummary{Total: len(results), CommonHour: ModalSentinel, CommonWeekday: ModalSentinel}
	if len(results) == 0 {
		return s
	}

	hourCounts := make(map[int]int)
	dayCounts := make(map[int]int)
	fraudAmount := 0.0
	for _, r := range results {
		if r.PredictionLabel != LabelFraud {
			continue
		}
		s.FraudCount++
		fraudAmount += r.TXAmount
		hourCounts[r.TXHour]++
		dayCounts[r.TXWeekday]++
	}

	s.FraudRate = float64(s.FraudCount) / float64(s.Total)
	if s.FraudCount > 0 {
		s.AvgFraudAmount = fraudAmount / float64(s.FraudCount)
		s.CommonHour = fmt.Sprintf("%d", mode(hourCounts))
		s.CommonWeekday = fmt.Sprintf("%d", mode(dayCounts))
	}
	return s
}

// mode returns the most frequent key; ties break toward the smallest key.
func mode(counts map[int]int) int {
	best, bestCount := 0, -1
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// ClassCounts returns the fraud / not-fraud split.
func ClassCounts(results []Prediction) (fraud, notFraud int) {
	for _, r := range results {
		if r.PredictionLabel == LabelFraud {
			fraud++
		} else {
			notFraud++
		}
	}
	return fraud, notFraud
}

// ProbabilityHistogram buckets fraud probabilities into bins equal-width
// over [0,1]. A probability of exactly 1 lands in the last bin.
func ProbabilityHistogram(results []Prediction, bins int) []int {
	if bins < 1 {
		bins = 1
	}
	counts := make([]int, bins)
	for _, r := range results {
		i := int(r.FraudProbability * float64(bins))
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		counts[i]++
	}
	return counts
}

// AmountRangeCount is the fraud / not-fraud split in one reporting range.
type AmountRangeCount struct {
	Range    string `json:"range"`
	Fraud    int    `json:"fraud"`
	NotFraud int    `json:"notFraud"`
}

// reportRangeEdges are the adjustable reporting buckets. They are distinct
// from the feature-derivation bin schema and must not be confused with it.
var reportRangeEdges = []float64{0, 100, 500, 1000, 5000, 10000}

// AmountRanges buckets scored rows by amount for reporting. The top edge
// is max(TX_AMOUNT)+1 so the maximum observed value is always included;
// base edges at or above it are dropped. The first interval is
// lowest-inclusive.
func AmountRanges(results []Prediction) []AmountRangeCount {
	if len(results) == 0 {
		return nil
	}

	maxAmount := results[0].TXAmount
	for _, r := range results {
		if r.TXAmount > maxAmount {
			maxAmount = r.TXAmount
		}
	}
	top := maxAmount + 1

	edges := []float64{reportRangeEdges[0]}
	for _, e := range reportRangeEdges[1:] {
		if e < top {
			edges = append(edges, e)
		}
	}
	edges = append(edges, top)

	out := make([]AmountRangeCount, len(edges)-1)
	for i := range out {
		out[i].Range = rangeLabel(edges, i)
	}
	for _, r := range results {
		i := rangeIndex(edges, r.TXAmount)
		if i < 0 {
			continue // below the lowest edge
		}
		if r.PredictionLabel == LabelFraud {
			out[i].Fraud++
		} else {
			out[i].NotFraud++
		}
	}
	return out
}

func rangeLabel(edges []float64, i int) string {
	if i == 0 {
		return fmt.Sprintf("<%g", edges[1])
	}
	if i == len(edges)-2 {
		return fmt.Sprintf("%g+", edges[i])
	}
	return fmt.Sprintf("%g-%g", edges[i], edges[i+1])
}

// rangeIndex finds the right-closed interval containing the amount, with
// the first interval including its lower edge.
func rangeIndex(edges []float64, amount float64) int {
	if amount < edges[0] {
		return -1
	}
	for i := 1; i < len(edges); i++ {
		if amount <= edges[i] {
			return i - 1
		}
	}
	return len(edges) - 2
}

// CustomerFraudCount is a customer's predicted-fraud row count.
type CustomerFraudCount struct {
	CustomerID string `json:"customerId"`
	Count      int    `json:"count"`
}

// CustomerFraudCounts returns the top-n customers by predicted fraud rows.
// Only meaningful when the upload carried CUSTOMER_ID; rows without one
// are skipped. Ties break by customer id for a stable listing.
func CustomerFraudCounts(results []Prediction, n int) []CustomerFraudCount {
	counts := make(map[string]int)
	for _, r := range results {
		if r.CustomerID == "" || r.PredictionLabel != LabelFraud {
			continue
		}
		counts[r.CustomerID]++
	}
	out := make([]CustomerFraudCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, CustomerFraudCount{CustomerID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CustomerID < out[j].CustomerID
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// ReconstructTimestamps fills TX_DATETIME for rows that lack a real
// timestamp, as base date 2020-01-01 plus the elapsed day and second
// fields. Rows that already carry a timestamp are left untouched.
func ReconstructTimestamps(results []Prediction) {
	for i := range results {
		if results[i].TXDatetime != nil {
			continue
		}
		ts := reconstructionBase.
			AddDate(0, 0, results[i].TXTimeDays).
			Add(time.Duration(results[i].TXTimeSeconds) * time.Second)
		results[i].TXDatetime = &ts
	}
}

// Package features derives model features from raw transactions.
//
// Derivation is a pure function of the dataset being processed: calendar
// fields from the timestamp, a fixed amount-bucket label, and a
// per-customer transaction count joined back onto every row. Input is
// treated as immutable; output preserves row count and order.
package features

import (
	"time"

	"github.com/mbd888/fraudscope/internal/txdata"
)

// Engineered is one transaction with all derived feature columns.
// Raw columns are carried through unchanged.
type Engineered struct {
	TransactionID string    `json:"TRANSACTION_ID"`
	CustomerID    string    `json:"CUSTOMER_ID"`
	TerminalID    string    `json:"TERMINAL_ID"`
	TXDatetime    time.Time `json:"TX_DATETIME"`
	TXAmount      float64   `json:"TX_AMOUNT"`
	TXFraud       *int      `json:"TX_FRAUD,omitempty"`

	TXTimeSeconds int64  `json:"TX_TIME_SECONDS"` // seconds since the dataset reference start
	TXTimeDays    int    `json:"TX_TIME_DAYS"`    // days since the dataset start
	TXHour        int    `json:"TX_HOUR"`         // 0-23
	TXWeekday     int    `json:"TX_WEEKDAY"`      // 0=Monday .. 6=Sunday
	TXMonth       int    `json:"TX_MONTH"`        // 1-12
	IsWeekend     int    `json:"IS_WEEKEND"`      // 1 iff weekday in {5,6}
	TXAmountBin   string `json:"TX_AMOUNT_BIN"`   // label from the fixed bin schema
	TXCount       int    `json:"TX_COUNT"`        // this customer's row count in the processed dataset
}

// Amount bin schema: right-closed intervals over the edges
// (-1, 10, 50, 100, 500, 1000, 5000, +inf].
var (
	binUpperEdges = []float64{10, 50, 100, 500, 1000, 5000}
	binLabels     = []string{"0-10", "10-50", "50-100", "100-500", "500-1000", "1000-5000", "5000+"}
)

// BinLabels returns the seven fixed amount-bin labels in ascending order.
func BinLabels() []string {
	out := make([]string, len(binLabels))
	copy(out, binLabels)
	return out
}

// AmountBin maps a transaction amount to its bucket label. The mapping is
// total and disjoint: every non-negative amount lands in exactly one of
// the seven labels, boundary amounts on the lower-inclusive side.
func AmountBin(amount float64) string {
	for i, edge := range binUpperEdges {
		if amount <= edge {
			return binLabels[i]
		}
	}
	return binLabels[len(binLabels)-1]
}

// Derive computes the engineered columns for every input row.
//
// TX_COUNT is a dataset-wide aggregate: for each customer, the count of
// all their rows in this call's input, joined back onto every row. It is
// computed once per derivation, never per single transaction.
//
// TX_TIME_SECONDS/TX_TIME_DAYS pass through when the snapshot producer
// supplied them; otherwise they are measured from midnight of the
// earliest transaction in the dataset.
func Derive(txs []txdata.Transaction) []Engineered {
	if len(txs) == 0 {
		return nil
	}

	counts := make(map[string]int, len(txs))
	start := txs[0].TXDatetime
	for _, tx := range txs {
		counts[tx.CustomerID]++
		if tx.TXDatetime.Before(start) {
			start = tx.TXDatetime
		}
	}
	base := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	out := make([]Engineered, len(txs))
	for i, tx := range txs {
		weekday := (int(tx.TXDatetime.Weekday()) + 6) % 7 // Go: Sunday=0; here: Monday=0
		weekend := 0
		if weekday == 5 || weekday == 6 {
			weekend = 1
		}

		seconds := int64(tx.TXDatetime.Sub(base) / time.Second)
		days := int(seconds / 86400)
		if tx.TXTimeSeconds != nil {
			seconds = *tx.TXTimeSeconds
		}
		if tx.TXTimeDays != nil {
			days = *tx.TXTimeDays
		}

		out[i] = Engineered{
			TransactionID: tx.TransactionID,
			CustomerID:    tx.CustomerID,
			TerminalID:    tx.TerminalID,
			TXDatetime:    tx.TXDatetime,
			TXAmount:      tx.TXAmount,
			TXFraud:       tx.TXFraud,
			TXTimeSeconds: seconds,
			TXTimeDays:    days,
			TXHour:        tx.TXDatetime.Hour(),
			TXWeekday:     weekday,
			TXMonth:       int(tx.TXDatetime.Month()),
			IsWeekend:     weekend,
			TXAmountBin:   AmountBin(tx.TXAmount),
			TXCount:       counts[tx.CustomerID],
		}
	}
	return out
}

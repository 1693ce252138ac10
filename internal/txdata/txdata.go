// Package txdata loads raw daily transaction snapshots.
//
// Snapshots live under a data directory as one CSV per calendar day,
// named YYYY-MM-DD.csv. Each file carries at least the required raw
// columns; labeled historical data additionally carries TX_FRAUD.
package txdata

import (
	"errors"
	"time"
)

// ErrNoData is returned when zero snapshot files could be located for a
// requested range. Recoverable: the user picks a different input.
var ErrNoData = errors.New("no snapshot files found")

// RequiredColumns are the columns every raw snapshot must carry.
var RequiredColumns = []string{
	"TRANSACTION_ID",
	"CUSTOMER_ID",
	"TERMINAL_ID",
	"TX_DATETIME",
	"TX_AMOUNT",
}

// DatetimeLayout is the timestamp format used in snapshot files.
const DatetimeLayout = "2006-01-02 15:04:05"

// SnapshotExt is the raw snapshot file extension.
const SnapshotExt = ".csv"

// Transaction is one raw input row.
type Transaction struct {
	TransactionID string    `json:"TRANSACTION_ID"`
	CustomerID    string    `json:"CUSTOMER_ID"`
	TerminalID    string    `json:"TERMINAL_ID"`
	TXDatetime    time.Time `json:"TX_DATETIME"`
	TXAmount      float64   `json:"TX_AMOUNT"`

	// TXFraud is the 0/1 label; nil for unlabeled scoring input.
	TXFraud *int `json:"TX_FRAUD,omitempty"`

	// Optional elapsed-time columns carried by some snapshot producers.
	// When absent they are derived from the dataset start at feature time.
	TXTimeSeconds *int64 `json:"TX_TIME_SECONDS,omitempty"`
	TXTimeDays    *int   `json:"TX_TIME_DAYS,omitempty"`
}

// Labeled reports whether the row carries a fraud label.
func (t *Transaction) Labeled() bool {
	return t.TXFraud != nil
}

// SnapshotName returns the file name for a calendar day.
func SnapshotName(day time.Time) string {
	return day.Format("2006-01-02") + SnapshotExt
}

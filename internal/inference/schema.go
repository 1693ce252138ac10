// Package inference turns raw transaction fields into the fixed-order
// numeric vector the fraud classifier consumes.
//
// The classifier has no column-name awareness at inference time, so the
// vector's field order is load-bearing: exactly nine fields, always in the
// same order, no matter what the caller supplied.
package inference

import (
	"fmt"
	"strings"
)

// FeatureOrder is the exact column order the model was trained on.
var FeatureOrder = []string{
	"TX_AMOUNT",
	"TX_TIME_SECONDS",
	"TX_TIME_DAYS",
	"TX_HOUR",
	"TX_WEEKDAY",
	"TX_MONTH",
	"IS_WEEKEND",
	"TX_AMOUNT_BIN",
	"TX_COUNT",
}

// NumFeatures is the width of the model input vector.
const NumFeatures = 9

// Defaults are the per-field substitutes for missing values.
// TX_MONTH defaults to January rather than zero because month is 1-based;
// TX_AMOUNT_BIN's "Unknown" flows through the encoder to the -1 sentinel.
var Defaults = map[string]string{
	"TX_AMOUNT":       "0",
	"TX_TIME_SECONDS": "0",
	"TX_TIME_DAYS":    "0",
	"TX_HOUR":         "0",
	"TX_WEEKDAY":      "0",
	"TX_MONTH":        "1",
	"IS_WEEKEND":      "0",
	"TX_AMOUNT_BIN":   "Unknown",
	"TX_COUNT":        "0",
}

// Diff is the result of comparing a set of input columns against the
// fixed feature schema. It is computed once, before any transformation.
type Diff struct {
	Missing []string // schema fields absent from the input
	Extra   []string // input columns outside the schema
}

// Complete reports whether the input carries every schema field.
func (d Diff) Complete() bool {
	return len(d.Missing) == 0
}

// SchemaDiff compares input column names (case-sensitive) against FeatureOrder.
// Missing fields are returned in schema order; extras in input order.
func SchemaDiff(columns []string) Diff {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	want := make(map[string]bool, NumFeatures)
	var d Diff
	for _, f := range FeatureOrder {
		want[f] = true
		if !present[f] {
			d.Missing = append(d.Missing, f)
		}
	}
	for _, c := range columns {
		if !want[c] {
			d.Extra = append(d.Extra, c)
		}
	}
	return d
}

// SchemaError reports required columns absent from an input table.
// The message enumerates every missing column so the caller can fix the input.
type SchemaError struct {
	Source  string   // what was being read, e.g. a file name or "batch upload"
	Missing []string // missing column names, in schema order
}

func (e *SchemaError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

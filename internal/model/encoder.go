package model

import "strconv"

// LabelEncoder maps an ordered list of known category strings to their
// integer codes (position in Classes). Fitted offline, immutable here.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	index map[string]int // built on load
}

// UnknownCode is the sentinel for categories outside the fitted class set.
const UnknownCode = -1

// NewLabelEncoder builds an encoder over the given ordered classes.
func NewLabelEncoder(classes []string) *LabelEncoder {
	le := &LabelEncoder{Classes: classes}
	le.buildIndex()
	return le
}

func (le *LabelEncoder) buildIndex() {
	le.index = make(map[string]int, len(le.Classes))
	for i, c := range le.Classes {
		le.index[c] = i
	}
}

// Encode maps a value to its integer code. Unseen categories map to
// UnknownCode rather than failing. A value that is already a valid code
// (or the sentinel itself) is kept as-is, which makes preprocessing
// idempotent on already-encoded input.
func (le *LabelEncoder) Encode(value string) int {
	if le.index == nil {
		le.buildIndex()
	}
	if code, ok := le.index[value]; ok {
		return code
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n == UnknownCode || (n >= 0 && n < len(le.Classes)) {
			return n
		}
	}
	return UnknownCode
}

// EncoderSet maps categorical feature names to their fitted encoders.
// Loaded once per process and safe for concurrent reads.
type EncoderSet map[string]*LabelEncoder

// Encode implements inference.Encoders.
func (s EncoderSet) Encode(column, value string) (float64, bool) {
	le, ok := s[column]
	if !ok {
		return 0, false
	}
	return float64(le.Encode(value)), true
}

// Columns returns the categorical column names with fitted encoders.
func (s EncoderSet) Columns() []string {
	cols := make([]string, 0, len(s))
	for c := range s {
		cols = append(cols, c)
	}
	return cols
}

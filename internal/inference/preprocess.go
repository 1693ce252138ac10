package inference

import "strconv"

// Vector is one model input row, ordered per FeatureOrder.
type Vector [NumFeatures]float64

// Encoders maps categorical feature values to integer codes.
// Encode returns ok=false when the column carries no fitted encoder,
// in which case the raw value is parsed numerically instead.
// Implemented by model.EncoderSet.
type Encoders interface {
	Encode(column, value string) (code float64, ok bool)
}

// Preprocess converts one raw row into the fixed nine-field vector.
//
// Rules, applied in order:
//   - columns with a fitted encoder are mapped through it (unseen values
//     become the -1 sentinel, never an error)
//   - columns outside the schema are dropped
//   - schema fields absent from the row are inserted as numeric zero
//   - output order is exactly FeatureOrder
//
// The input row is not mutated. Preprocess is idempotent: encoders keep
// values that are already valid codes, so re-running on its own output
// changes nothing.
func Preprocess(row map[string]string, enc Encoders) Vector {
	var v Vector
	for i, field := range FeatureOrder {
		raw, present := row[field]
		if !present {
			continue // zero value
		}
		if code, ok := enc.Encode(field, raw); ok {
			v[i] = code
			continue
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			v[i] = f
		}
	}
	return v
}

// PreprocessBatch vectorizes many rows identically to Preprocess.
func PreprocessBatch(rows []map[string]string, enc Encoders) []Vector {
	out := make([]Vector, len(rows))
	for i, row := range rows {
		out[i] = Preprocess(row, enc)
	}
	return out
}

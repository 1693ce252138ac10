// Package dataset persists the engineered transaction dataset produced
// by feature derivation, for the feature-browsing pages and the derive
// command. Backends: in-memory (tests), a single CSV file, PostgreSQL.
package dataset

import (
	"context"
	"errors"

	"github.com/mbd888/fraudscope/internal/features"
)

// ErrEmptyDataset is returned when no engineered dataset has been
// persisted yet. Recoverable: run the derive command first.
var ErrEmptyDataset = errors.New("engineered dataset is empty")

// Store persists engineered transactions. Replace swaps the whole
// dataset atomically; derivation is a full-dataset operation, so there
// is no row-level mutation.
type Store interface {
	Replace(ctx context.Context, rows []features.Engineered) error
	List(ctx context.Context, limit, offset int) ([]features.Engineered, error)
	Count(ctx context.Context) (int, error)
	Summary(ctx context.Context) (features.DatasetSummary, error)
}

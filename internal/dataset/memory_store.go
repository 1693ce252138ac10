package dataset

import (
	"context"
	"sync"

	"github.com/mbd888/fraudscope/internal/features"
)

// MemoryStore is an in-memory implementation of Store for testing
type MemoryStore struct {
	mu   sync.RWMutex
	rows []features.Engineered
}

// NewMemoryStore creates a new in-memory dataset store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

// Replace swaps the stored dataset.
func (m *MemoryStore) Replace(ctx context.Context, rows []features.Engineered) error {
	cp := make([]features.Engineered, len(rows))
	copy(cp, rows)

	m.mu.Lock()
	m.rows = cp
	m.mu.Unlock()
	return nil
}

// List returns a page of engineered rows in stored order.
func (m *MemoryStore) List(ctx context.Context, limit, offset int) ([]features.Engineered, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.rows) == 0 {
		return nil, ErrEmptyDataset
	}
	if offset >= len(m.rows) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(m.rows) {
		end = len(m.rows)
	}
	page := make([]features.Engineered, end-offset)
	copy(page, m.rows[offset:end])
	return page, nil
}

// Count returns the stored row count.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows), nil
}

// Summary computes dataset statistics over the stored rows.
func (m *MemoryStore) Summary(ctx context.Context) (features.DatasetSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.rows) == 0 {
		return features.DatasetSummary{}, ErrEmptyDataset
	}
	return features.Summarize(m.rows), nil
}

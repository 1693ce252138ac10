package txdata

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LoadRange loads every daily snapshot in the inclusive [from, to] range.
// Missing days are skipped and logged, not fatal. Loaded records are
// concatenated and sorted chronologically. Returns ErrNoData when not a
// single file in the range exists.
func LoadRange(dir string, from, to time.Time, logger *slog.Logger) ([]Transaction, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var all []Transaction
	loaded := 0
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		path := filepath.Join(dir, SnapshotName(day))
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warn("missing snapshot file", "path", path)
				continue
			}
			return nil, fmt.Errorf("open snapshot: %w", err)
		}

		txs, err := ReadTransactions(f, filepath.Base(path))
		f.Close()
		if err != nil {
			return nil, err
		}
		all = append(all, txs...)
		loaded++
	}

	if loaded == 0 {
		return nil, fmt.Errorf("%w in %s between %s and %s", ErrNoData,
			dir, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	sortChronological(all)
	logger.Info("loaded snapshot range", "files", loaded, "rows", len(all))
	return all, nil
}

// LoadFile reads a single named snapshot. When requireChronology is set
// the rows are sorted by TX_DATETIME; a file without that column already
// fails the required-column check in ReadTransactions. A missing file
// surfaces the underlying os.ErrNotExist.
func LoadFile(path string, requireChronology bool) ([]Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	txs, err := ReadTransactions(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if requireChronology {
		sortChronological(txs)
	}
	return txs, nil
}

// ListRawFiles returns the sorted snapshot file names under dir.
func ListRawFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SnapshotExt) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func sortChronological(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].TXDatetime.Before(txs[j].TXDatetime)
	})
}

package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mbd888/fraudscope/internal/features"
	"github.com/mbd888/fraudscope/internal/txdata"
)

// engineeredColumns is the processed-file layout: every raw column plus
// the five derived columns and the elapsed-time fields.
var engineeredColumns = []string{
	"TRANSACTION_ID", "CUSTOMER_ID", "TERMINAL_ID", "TX_DATETIME",
	"TX_AMOUNT", "TX_FRAUD",
	"TX_TIME_SECONDS", "TX_TIME_DAYS",
	"TX_HOUR", "TX_WEEKDAY", "TX_MONTH", "IS_WEEKEND",
	"TX_AMOUNT_BIN", "TX_COUNT",
}

// FileStore persists the engineered dataset as one CSV file, the
// counterpart of the derive command's processed output.
type FileStore struct {
	path string
}

// NewFileStore creates a dataset store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ Store = (*FileStore)(nil)

// Replace writes the whole dataset, creating parent directories as
// needed. The write goes through a temp file and rename so readers never
// observe a partial dataset.
func (s *FileStore) Replace(ctx context.Context, rows []features.Engineered) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create processed dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".processed-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(engineeredColumns); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		fraud := ""
		if r.TXFraud != nil {
			fraud = strconv.Itoa(*r.TXFraud)
		}
		record := []string{
			r.TransactionID, r.CustomerID, r.TerminalID,
			r.TXDatetime.Format(txdata.DatetimeLayout),
			strconv.FormatFloat(r.TXAmount, 'f', -1, 64),
			fraud,
			strconv.FormatInt(r.TXTimeSeconds, 10),
			strconv.Itoa(r.TXTimeDays),
			strconv.Itoa(r.TXHour),
			strconv.Itoa(r.TXWeekday),
			strconv.Itoa(r.TXMonth),
			strconv.Itoa(r.IsWeekend),
			r.TXAmountBin,
			strconv.Itoa(r.TXCount),
		}
		if err := cw.Write(record); err != nil {
			tmp.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// List returns a page of engineered rows in file order.
func (s *FileStore) List(ctx context.Context, limit, offset int) ([]features.Engineered, error) {
	rows, err := s.load()
	if err != nil {
		return nil, err
	}
	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], nil
}

// Count returns the persisted row count.
func (s *FileStore) Count(ctx context.Context) (int, error) {
	rows, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Summary computes dataset statistics over the persisted rows.
func (s *FileStore) Summary(ctx context.Context) (features.DatasetSummary, error) {
	rows, err := s.load()
	if err != nil {
		return features.DatasetSummary{}, err
	}
	return features.Summarize(rows), nil
}

func (s *FileStore) load() ([]features.Engineered, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrEmptyDataset
		}
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var rows []features.Engineered
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		ts, err := time.Parse(txdata.DatetimeLayout, get("TX_DATETIME"))
		if err != nil {
			return nil, fmt.Errorf("%s: TX_DATETIME: %w", s.path, err)
		}
		r := features.Engineered{
			TransactionID: get("TRANSACTION_ID"),
			CustomerID:    get("CUSTOMER_ID"),
			TerminalID:    get("TERMINAL_ID"),
			TXDatetime:    ts,
			TXAmountBin:   get("TX_AMOUNT_BIN"),
		}
		r.TXAmount, _ = strconv.ParseFloat(get("TX_AMOUNT"), 64)
		if v := get("TX_FRAUD"); v != "" {
			if label, err := strconv.Atoi(v); err == nil {
				r.TXFraud = &label
			}
		}
		r.TXTimeSeconds, _ = strconv.ParseInt(get("TX_TIME_SECONDS"), 10, 64)
		r.TXTimeDays, _ = strconv.Atoi(get("TX_TIME_DAYS"))
		r.TXHour, _ = strconv.Atoi(get("TX_HOUR"))
		r.TXWeekday, _ = strconv.Atoi(get("TX_WEEKDAY"))
		r.TXMonth, _ = strconv.Atoi(get("TX_MONTH"))
		r.IsWeekend, _ = strconv.Atoi(get("IS_WEEKEND"))
		r.TXCount, _ = strconv.Atoi(get("TX_COUNT"))
		rows = append(rows, r)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return rows, nil
}

package txdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mbd888/fraudscope/internal/inference"
)

// ReadTransactions decodes raw transactions from CSV. The header is
// mandatory; extra columns are preserved only where the Transaction type
// has a home for them, otherwise ignored. Missing required columns yield
// a *inference.SchemaError naming every absent column.
func ReadTransactions(r io.Reader, source string) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", source, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &inference.SchemaError{Source: source, Missing: missing}
	}

	var txs []Transaction
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", source, line, err)
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		ts, err := parseDatetime(field("TX_DATETIME"))
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: TX_DATETIME: %w", source, line, err)
		}
		amount, err := strconv.ParseFloat(field("TX_AMOUNT"), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: TX_AMOUNT: %w", source, line, err)
		}

		tx := Transaction{
			TransactionID: field("TRANSACTION_ID"),
			CustomerID:    field("CUSTOMER_ID"),
			TerminalID:    field("TERMINAL_ID"),
			TXDatetime:    ts,
			TXAmount:      amount,
		}
		if v := field("TX_FRAUD"); v != "" {
			if label, err := strconv.Atoi(v); err == nil {
				tx.TXFraud = &label
			}
		}
		if v := field("TX_TIME_SECONDS"); v != "" {
			if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
				tx.TXTimeSeconds = &secs
			}
		}
		if v := field("TX_TIME_DAYS"); v != "" {
			if days, err := strconv.Atoi(v); err == nil {
				tx.TXTimeDays = &days
			}
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func parseDatetime(s string) (time.Time, error) {
	if t, err := time.Parse(DatetimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

package txdata

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mbd888/fraudscope/internal/inference"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSnapshot(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const snapshotHeader = "TRANSACTION_ID,CUSTOMER_ID,TERMINAL_ID,TX_DATETIME,TX_AMOUNT\n"

func TestReadTransactions(t *testing.T) {
	input := snapshotHeader +
		"t1,c1,m1,2024-06-01 10:30:00,120.5\n" +
		"t2,c2,m2,2024-06-01 11:00:00,30\n"

	txs, err := ReadTransactions(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d rows, want 2", len(txs))
	}
	if txs[0].TXAmount != 120.5 || txs[0].CustomerID != "c1" {
		t.Errorf("row 0 = %+v", txs[0])
	}
	if txs[0].Labeled() {
		t.Error("unlabeled row reported as labeled")
	}
}

func TestReadTransactionsOptionalColumns(t *testing.T) {
	input := "TRANSACTION_ID,CUSTOMER_ID,TERMINAL_ID,TX_DATETIME,TX_AMOUNT,TX_FRAUD,TX_TIME_SECONDS,TX_TIME_DAYS\n" +
		"t1,c1,m1,2024-06-01 10:30:00,120.5,1,5000,42\n"

	txs, err := ReadTransactions(strings.NewReader(input), "test.csv")
	if err != nil {
		t.Fatal(err)
	}
	tx := txs[0]
	if !tx.Labeled() || *tx.TXFraud != 1 {
		t.Errorf("fraud label not parsed: %+v", tx.TXFraud)
	}
	if tx.TXTimeSeconds == nil || *tx.TXTimeSeconds != 5000 {
		t.Errorf("TX_TIME_SECONDS not parsed: %+v", tx.TXTimeSeconds)
	}
	if tx.TXTimeDays == nil || *tx.TXTimeDays != 42 {
		t.Errorf("TX_TIME_DAYS not parsed: %+v", tx.TXTimeDays)
	}
}

func TestReadTransactionsMissingColumns(t *testing.T) {
	input := "TRANSACTION_ID,CUSTOMER_ID,TX_AMOUNT\nt1,c1,10\n"

	_, err := ReadTransactions(strings.NewReader(input), "broken.csv")
	var schemaErr *inference.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}
	for _, want := range []string{"TERMINAL_ID", "TX_DATETIME"} {
		found := false
		for _, m := range schemaErr.Missing {
			if m == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing list %v does not include %s", schemaErr.Missing, want)
		}
	}
	if !strings.Contains(err.Error(), "broken.csv") {
		t.Errorf("error %q does not name the source file", err)
	}
}

func TestLoadRangeSkipsMissingDays(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "2024-06-01.csv", snapshotHeader+"t1,c1,m1,2024-06-01 10:00:00,10\n")
	// 2024-06-02 deliberately absent.
	writeSnapshot(t, dir, "2024-06-03.csv", snapshotHeader+"t2,c2,m2,2024-06-03 09:00:00,20\n")

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	txs, err := LoadRange(dir, from, to, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d rows, want 2", len(txs))
	}
	// Chronological order across files.
	if txs[0].TransactionID != "t1" || txs[1].TransactionID != "t2" {
		t.Errorf("rows out of order: %s, %s", txs[0].TransactionID, txs[1].TransactionID)
	}
}

func TestLoadRangeNoData(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := LoadRange(t.TempDir(), from, from.AddDate(0, 0, 5), discardLogger())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
	if !strings.Contains(err.Error(), "2024-06-01") {
		t.Errorf("error %q does not name the range", err)
	}
}

func TestLoadFileSortsChronologically(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "2024-06-01.csv", snapshotHeader+
		"t2,c1,m1,2024-06-01 15:00:00,10\n"+
		"t1,c1,m1,2024-06-01 09:00:00,20\n")

	txs, err := LoadFile(filepath.Join(dir, "2024-06-01.csv"), true)
	if err != nil {
		t.Fatal(err)
	}
	if txs[0].TransactionID != "t1" {
		t.Errorf("rows not sorted: first is %s", txs[0].TransactionID)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), false)
	if !os.IsNotExist(err) {
		t.Fatalf("got %v, want not-exist", err)
	}
}

func TestListRawFiles(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "2024-06-02.csv", snapshotHeader)
	writeSnapshot(t, dir, "2024-06-01.csv", snapshotHeader)
	writeSnapshot(t, dir, "notes.txt", "ignore me")

	names, err := ListRawFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2024-06-01.csv", "2024-06-02.csv"}
	if len(names) != 2 || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("ListRawFiles = %v, want %v", names, want)
	}
}

func TestSnapshotName(t *testing.T) {
	day := time.Date(2024, 6, 1, 15, 4, 5, 0, time.UTC)
	if got := SnapshotName(day); got != "2024-06-01.csv" {
		t.Errorf("SnapshotName = %q", got)
	}
}

// Command derive runs feature derivation over raw daily snapshots and
// replaces the persisted engineered dataset.
//
// Usage:
//
//	go run ./cmd/derive -from 2024-01-01 -to 2024-01-31
//	go run ./cmd/derive -file data/2024-01-15.csv
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/mbd888/fraudscope/internal/config"
	"github.com/mbd888/fraudscope/internal/dataset"
	"github.com/mbd888/fraudscope/internal/features"
	"github.com/mbd888/fraudscope/internal/logging"
	"github.com/mbd888/fraudscope/internal/txdata"
)

func main() {
	var (
		fromStr = flag.String("from", "", "range start (YYYY-MM-DD)")
		toStr   = flag.String("to", "", "range end, inclusive (YYYY-MM-DD)")
		file    = flag.String("file", "", "single snapshot file instead of a range")
	)
	flag.Parse()

	logger := logging.Component(logging.New("info", "text"), "derive")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var txs []txdata.Transaction
	switch {
	case *file != "":
		txs, err = txdata.LoadFile(*file, true)
	case *fromStr != "" && *toStr != "":
		var from, to time.Time
		if from, err = time.Parse("2006-01-02", *fromStr); err != nil {
			logger.Error("invalid -from date", "error", err)
			os.Exit(1)
		}
		if to, err = time.Parse("2006-01-02", *toStr); err != nil {
			logger.Error("invalid -to date", "error", err)
			os.Exit(1)
		}
		txs, err = txdata.LoadRange(cfg.DataDir, from, to, logger)
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		if errors.Is(err, txdata.ErrNoData) {
			logger.Error("no snapshot data for the requested input", "error", err)
		} else {
			logger.Error("failed to load snapshots", "error", err)
		}
		os.Exit(1)
	}

	engineered := features.Derive(txs)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open dataset store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	if err := store.Replace(ctx, engineered); err != nil {
		logger.Error("failed to persist engineered dataset", "error", err)
		os.Exit(1)
	}

	s := features.Summarize(engineered)
	fmt.Printf("derived %d rows (%d customers, %d labeled, %d fraud)\n",
		s.Rows, s.Customers, s.LabeledRows, s.FraudRows)
	fmt.Printf("range %s .. %s, mean amount %.2f\n",
		s.From.Format("2006-01-02"), s.To.Format("2006-01-02"), s.MeanAmount)
}

func openStore(ctx context.Context, cfg *config.Config) (dataset.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return dataset.NewFileStore(cfg.ProcessedPath), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return dataset.NewPostgresStore(db), func() { db.Close() }, nil
}

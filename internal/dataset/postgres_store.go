package dataset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mbd888/fraudscope/internal/features"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed dataset store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

var _ Store = (*PostgresStore)(nil)

// Migrate creates the engineered transactions table. cmd/migrate applies
// the same schema via goose; this covers ad-hoc test databases.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS engineered_transactions (
			transaction_id  TEXT PRIMARY KEY,
			customer_id     TEXT NOT NULL,
			terminal_id     TEXT NOT NULL,
			tx_datetime     TIMESTAMPTZ NOT NULL,
			tx_amount       DOUBLE PRECISION NOT NULL,
			tx_fraud        SMALLINT,
			tx_time_seconds BIGINT NOT NULL,
			tx_time_days    INT NOT NULL,
			tx_hour         SMALLINT NOT NULL,
			tx_weekday      SMALLINT NOT NULL,
			tx_month        SMALLINT NOT NULL,
			is_weekend      SMALLINT NOT NULL,
			tx_amount_bin   TEXT NOT NULL,
			tx_count        INT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_engineered_datetime ON engineered_transactions(tx_datetime);
		CREATE INDEX IF NOT EXISTS idx_engineered_customer ON engineered_transactions(customer_id)`)
	return err
}

// Replace swaps the stored dataset in one transaction.
func (p *PostgresStore) Replace(ctx context.Context, rows []features.Engineered) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `TRUNCATE engineered_transactions`); err != nil {
		return fmt.Errorf("truncate dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO engineered_transactions (
			transaction_id, customer_id, terminal_id, tx_datetime,
			tx_amount, tx_fraud, tx_time_seconds, tx_time_days,
			tx_hour, tx_weekday, tx_month, is_weekend, tx_amount_bin, tx_count
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		var fraud sql.NullInt16
		if r.TXFraud != nil {
			fraud = sql.NullInt16{Int16: int16(*r.TXFraud), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			r.TransactionID, r.CustomerID, r.TerminalID, r.TXDatetime,
			r.TXAmount, fraud, r.TXTimeSeconds, r.TXTimeDays,
			r.TXHour, r.TXWeekday, r.TXMonth, r.IsWeekend, r.TXAmountBin, r.TXCount,
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.TransactionID, err)
		}
	}

	return tx.Commit()
}

// List returns a page of engineered rows in chronological order.
func (p *PostgresStore) List(ctx context.Context, limit, offset int) ([]features.Engineered, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT transaction_id, customer_id, terminal_id, tx_datetime,
		       tx_amount, tx_fraud, tx_time_seconds, tx_time_days,
		       tx_hour, tx_weekday, tx_month, is_weekend, tx_amount_bin, tx_count
		FROM engineered_transactions
		ORDER BY tx_datetime, transaction_id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []features.Engineered
	for rows.Next() {
		var r features.Engineered
		var fraud sql.NullInt16
		if err := rows.Scan(
			&r.TransactionID, &r.CustomerID, &r.TerminalID, &r.TXDatetime,
			&r.TXAmount, &fraud, &r.TXTimeSeconds, &r.TXTimeDays,
			&r.TXHour, &r.TXWeekday, &r.TXMonth, &r.IsWeekend, &r.TXAmountBin, &r.TXCount,
		); err != nil {
			return nil, err
		}
		if fraud.Valid {
			label := int(fraud.Int16)
			r.TXFraud = &label
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 && offset == 0 {
		return nil, ErrEmptyDataset
	}
	return out, nil
}

// Count returns the stored row count.
func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM engineered_transactions`).Scan(&n)
	return n, err
}

// Summary computes dataset statistics in the database.
func (p *PostgresStore) Summary(ctx context.Context) (features.DatasetSummary, error) {
	var s features.DatasetSummary
	var from, to sql.NullTime
	var mean sql.NullFloat64
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT customer_id),
		       COUNT(tx_fraud),
		       COALESCE(SUM(CASE WHEN tx_fraud = 1 THEN 1 ELSE 0 END), 0),
		       AVG(tx_amount),
		       MIN(tx_datetime),
		       MAX(tx_datetime)
		FROM engineered_transactions`).Scan(
		&s.Rows, &s.Customers, &s.LabeledRows, &s.FraudRows, &mean, &from, &to)
	if err != nil {
		return features.DatasetSummary{}, err
	}
	if s.Rows == 0 {
		return features.DatasetSummary{}, ErrEmptyDataset
	}
	if mean.Valid {
		s.MeanAmount = mean.Float64
	}
	if from.Valid {
		s.From = from.Time
	}
	if to.Valid {
		s.To = to.Time
	}
	if s.LabeledRows > 0 {
		s.FraudRate = float64(s.FraudRows) / float64(s.LabeledRows)
	}
	return s, nil
}

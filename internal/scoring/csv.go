package scoring

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/mbd888/fraudscope/internal/model"
)

// ReadBatchCSV decodes an uploaded scoring batch. The header row names
// the columns (case-sensitive); cells beyond the header width are
// ignored, short rows leave the remaining cells empty.
func ReadBatchCSV(r io.Reader) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // tolerate ragged rows; defaults cover the gaps

	header, err := cr.Read()
	if err == io.EOF {
		return &Batch{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("batch upload: read header: %w", err)
	}

	batch := &Batch{Columns: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("batch upload: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		batch.Rows = append(batch.Rows, row)
	}
	return batch, nil
}

// ScoreOne scores a single transaction supplied as a field map. The
// caller-provided TX_COUNT is a user override and passes through as-is;
// it is never recomputed here.
func ScoreOne(ctx context.Context, row map[string]string, m model.Model, encoders model.EncoderSet) (*Prediction, error) {
	columns := make([]string, 0, len(row))
	for k := range row {
		columns = append(columns, k)
	}
	res, err := ScoreBatch(ctx, &Batch{Columns: columns, Rows: []map[string]string{row}}, m, encoders)
	if err != nil {
		return nil, err
	}
	return &res.Results[0], nil
}

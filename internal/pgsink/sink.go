package pgsink

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkrou/kflow/runner"
)

// Sink persists string/string records to a single Postgres table,
// keyed by (topic, partition, offset) so a redelivered or retried
// ProcessUnit upserts onto the same row instead of producing a
// duplicate — the runner can hand the same batch to Process more than
// once (a pause that resolves before the broker commit lands retries
// the unit in place), so the write itself has to be idempotent rather
// than the runner de-duplicating on its behalf.
type Sink struct {
	pool  *pgxpool.Pool
	table string
}

// NewSink returns a Sink writing to table. table is trusted input —
// callers pass a compile-time constant, never request-derived data.
func NewSink(pool *pgxpool.Pool, table string) *Sink {
	return &Sink{pool: pool, table: table}
}

// Process implements runner.Processor[string, string]. It upserts
// every record in one transaction and reports the whole batch as the
// ProcessResult, matching the records it was handed.
func (s *Sink) Process(ctx context.Context, records []runner.Record[string, string]) (runner.ProcessResult[string, string], error) {
	if len(records) == 0 {
		return runner.ProcessResult[string, string]{Records: records}, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return runner.ProcessResult[string, string]{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			_ = rbErr
		}
	}()

	query := fmt.Sprintf(`
		INSERT INTO %s (topic, partition, "offset", key, value, record_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (topic, partition, "offset") DO UPDATE SET
			key = EXCLUDED.key,
			value = EXCLUDED.value,
			record_ts = EXCLUDED.record_ts
	`, s.table)

	for _, rec := range records {
		if _, err := tx.Exec(ctx, query,
			rec.Partition.Topic, rec.Partition.Partition, rec.Offset, rec.Key, rec.Value, rec.Timestamp,
		); err != nil {
			return runner.ProcessResult[string, string]{}, fmt.Errorf("upsert record %s/%d@%d: %w",
				rec.Partition.Topic, rec.Partition.Partition, rec.Offset, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return runner.ProcessResult[string, string]{}, fmt.Errorf("commit: %w", err)
	}

	return runner.ProcessResult[string, string]{ID: uuid.NewString(), Records: records}, nil
}

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sweeper/internal/core"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS sweep_history (
	id                 TEXT PRIMARY KEY,
	file_name          TEXT NOT NULL,
	source             TEXT,
	target             TEXT,
	rows_in            INTEGER NOT NULL DEFAULT 0,
	rows_out           INTEGER NOT NULL DEFAULT 0,
	duplicates_removed INTEGER NOT NULL DEFAULT 0,
	incomplete_removed INTEGER NOT NULL DEFAULT 0,
	output_bytes       INTEGER NOT NULL DEFAULT 0,
	duration_ms        BIGINT NOT NULL DEFAULT 0,
	error              TEXT,
	error_code         TEXT,
	ip_address         TEXT,
	user_agent         TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sweep_history_created_at_idx ON sweep_history (created_at DESC);
`

const insertSQL = `
INSERT INTO sweep_history (
	id, file_name, source, target, rows_in, rows_out,
	duplicates_removed, incomplete_removed, output_bytes, duration_ms,
	error, error_code, ip_address, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const recentSQL = `
SELECT id, file_name, source, target, rows_in, rows_out,
	duplicates_removed, incomplete_removed, output_bytes, duration_ms,
	error, error_code, ip_address, user_agent, created_at
FROM sweep_history
ORDER BY created_at DESC
LIMIT $1`

const pruneSQL = `DELETE FROM sweep_history WHERE created_at < $1`

// PostgresStore keeps sweep history in the sweep_history table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the table if needed and returns a store on pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create sweep_history table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Record inserts one summary row.
func (s *PostgresStore) Record(ctx context.Context, rec core.SweepRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, insertSQL,
		rec.ID.String(),
		rec.FileName,
		toPgText(string(rec.Source)),
		toPgText(string(rec.Target)),
		rec.RowsIn,
		rec.RowsOut,
		rec.DuplicatesRemoved,
		rec.IncompleteRemoved,
		rec.OutputBytes,
		rec.DurationMs,
		toPgText(rec.Error),
		toPgText(rec.ErrorCode),
		toPgText(rec.IPAddress),
		toPgText(rec.UserAgent),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sweep record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]core.SweepRecord, error) {
	rows, err := s.pool.Query(ctx, recentSQL, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query sweep history: %w", err)
	}
	defer rows.Close()

	var out []core.SweepRecord
	for rows.Next() {
		var rec core.SweepRecord
		var id string
		var source, target, errText, errCode, ipAddress, agent pgtype.Text
		if err := rows.Scan(
			&id, &rec.FileName, &source, &target, &rec.RowsIn, &rec.RowsOut,
			&rec.DuplicatesRemoved, &rec.IncompleteRemoved, &rec.OutputBytes, &rec.DurationMs,
			&errText, &errCode, &ipAddress, &agent, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sweep record: %w", err)
		}

		rec.ID, _ = uuid.Parse(id)
		rec.Source = core.Format(source.String)
		rec.Target = core.Format(target.String)
		rec.Error = errText.String
		rec.ErrorCode = errCode.String
		rec.IPAddress = ipAddress.String
		rec.UserAgent = agent.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read sweep history: %w", err)
	}
	return out, nil
}

// Prune deletes records created before cutoff.
func (s *PostgresStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, pruneSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sweep history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// toPgText maps "" to SQL NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

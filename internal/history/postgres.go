package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on connect. Idempotent so repeated startups are safe.
const schema = `
CREATE TABLE IF NOT EXISTS call_records (
    id          TEXT PRIMARY KEY,
    session_id  TEXT NOT NULL DEFAULT '',
    filename    TEXT NOT NULL DEFAULT '',
    ts          TIMESTAMPTZ NOT NULL,
    score       DOUBLE PRECISION NOT NULL,
    confidence  DOUBLE PRECISION NOT NULL,
    verdict     TEXT NOT NULL,
    trend       TEXT NOT NULL DEFAULT '',
    analyses    INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS call_records_ts_idx ON call_records (ts DESC);
`

// Postgres is a [Store] backed by a PostgreSQL call_records table.
// All methods are safe for concurrent use.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to url, applies the schema, and returns the store.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("history: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Save implements [Store].
func (p *Postgres) Save(ctx context.Context, rec CallRecord) error {
	const q = `
		INSERT INTO call_records
		    (id, session_id, filename, ts, score, confidence, verdict, trend, analyses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err := p.pool.Exec(ctx, q,
		rec.ID,
		rec.SessionID,
		rec.Filename,
		rec.Timestamp,
		rec.Score,
		rec.Confidence,
		rec.Verdict,
		rec.Trend,
		rec.Analyses,
	)
	if err != nil {
		return fmt.Errorf("history: save record: %w", err)
	}
	return nil
}

// Recent implements [Store].
func (p *Postgres) Recent(ctx context.Context, limit int) ([]CallRecord, error) {
	const q = `
		SELECT id, session_id, filename, ts, score, confidence, verdict, trend, analyses
		FROM   call_records
		ORDER  BY ts DESC
		LIMIT  $1`

	rows, err := p.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CallRecord, error) {
		var r CallRecord
		err := row.Scan(&r.ID, &r.SessionID, &r.Filename, &r.Timestamp,
			&r.Score, &r.Confidence, &r.Verdict, &r.Trend, &r.Analyses)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("history: scan records: %w", err)
	}
	return recs, nil
}

// Ping reports whether the database is reachable; used by readiness
// checks.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

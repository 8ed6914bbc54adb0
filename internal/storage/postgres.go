// Package storage holds the three persistence backends a run can use:
// atomic per-artifact files (the default and spec-mandated backend), an
// embedded bbolt registry for O(1) resume checks, and an optional
// Postgres archive for durable cross-run querying.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privacylab/flfp-kernel/pkg/models"
)

// PostgresStore archives run metadata and iteration summaries, adapted
// from the teacher's internal/db.PostgresStore: same pgxpool connection
// pattern, same explicit-transaction-with-upsert shape, now persisting
// fingerprinting artifacts instead of heuristic flags.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens and pings the pool.
func ConnectPostgres(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("flfp: storage: connect: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("flfp: storage: ping: %w", err)
	}
	log.Println("[storage] connected to postgres archive")
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the archive tables if they do not already exist.
// Unlike the teacher's InitSchema (which reads a schema.sql file from
// disk), the DDL is inlined here: the archive schema is small and fixed,
// and there is no reason to ship a file a binary-only deployment cannot
// read.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at BIGINT NOT NULL,
	encoding TEXT NOT NULL,
	method TEXT NOT NULL,
	status TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS iteration_summaries (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	iteration INT NOT NULL,
	n_unique_users INT NOT NULL,
	n_usable_rules INT NOT NULL,
	n_participating_filterlists INT NOT NULL,
	PRIMARY KEY (run_id, iteration)
);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("flfp: storage: init schema: %w", err)
	}
	return nil
}

// SaveRun upserts run metadata.
func (s *PostgresStore) SaveRun(ctx context.Context, run models.RunMetadata) error {
	const sql = `
INSERT INTO runs (run_id, created_at, encoding, method, status)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (run_id) DO UPDATE
SET status = EXCLUDED.status;
`
	_, err := s.pool.Exec(ctx, sql, run.RunID, run.CreatedAt, run.Encoding, run.Method, run.Status)
	if err != nil {
		return fmt.Errorf("flfp: storage: save run: %w", err)
	}
	return nil
}

// SaveIterationSummary upserts one iteration's summary row within a
// transaction, mirroring the teacher's SaveAnalysisResult transactional
// shape.
func (s *PostgresStore) SaveIterationSummary(ctx context.Context, runID string, summary models.IterationSummary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flfp: storage: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const sql = `
INSERT INTO iteration_summaries (run_id, iteration, n_unique_users, n_usable_rules, n_participating_filterlists)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (run_id, iteration) DO UPDATE
SET n_unique_users = EXCLUDED.n_unique_users,
    n_usable_rules = EXCLUDED.n_usable_rules,
    n_participating_filterlists = EXCLUDED.n_participating_filterlists;
`
	_, err = tx.Exec(ctx, sql, runID, summary.Iteration, summary.NUniqueUsers, summary.NUsableRules, summary.NParticipatingFilterlists)
	if err != nil {
		return fmt.Errorf("flfp: storage: save iteration: %w", err)
	}
	return tx.Commit(ctx)
}

// ListRuns returns run metadata ordered by most recently created.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]models.RunMetadata, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `SELECT run_id, created_at, encoding, method, status FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("flfp: storage: list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.RunMetadata
	for rows.Next() {
		var r models.RunMetadata
		if err := rows.Scan(&r.RunID, &r.CreatedAt, &r.Encoding, &r.Method, &r.Status); err != nil {
			return nil, fmt.Errorf("flfp: storage: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, nil
}

// GetRun fetches one run's metadata. The returned error wraps
// pgx.ErrNoRows (check with errors.Is) when no run has that id.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (models.RunMetadata, error) {
	var r models.RunMetadata
	row := s.pool.QueryRow(ctx, `SELECT run_id, created_at, encoding, method, status FROM runs WHERE run_id = $1`, runID)
	if err := row.Scan(&r.RunID, &r.CreatedAt, &r.Encoding, &r.Method, &r.Status); err != nil {
		return models.RunMetadata{}, fmt.Errorf("flfp: storage: get run %s: %w", runID, err)
	}
	return r, nil
}

// GetLatestIterationSummary returns the highest-numbered iteration summary
// recorded for a run, or ok=false if the run has no iterations archived
// (e.g. a targeted or general run, which only ever writes one RunMetadata
// row and no iteration_summaries rows).
func (s *PostgresStore) GetLatestIterationSummary(ctx context.Context, runID string) (summary models.IterationSummary, ok bool, err error) {
	row := s.pool.QueryRow(ctx, `
SELECT iteration, n_unique_users, n_usable_rules, n_participating_filterlists
FROM iteration_summaries
WHERE run_id = $1
ORDER BY iteration DESC
LIMIT 1;
`, runID)
	if scanErr := row.Scan(&summary.Iteration, &summary.NUniqueUsers, &summary.NUsableRules, &summary.NParticipatingFilterlists); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return models.IterationSummary{}, false, nil
		}
		return models.IterationSummary{}, false, fmt.Errorf("flfp: storage: latest iteration for run %s: %w", runID, scanErr)
	}
	return summary, true, nil
}

// GetPool exposes the connection pool to the status API for read-only
// ad-hoc queries, matching the teacher's GetPool accessor used by the
// shadow runner.
func (s *PostgresStore) GetPool() *pgxpool.Pool { return s.pool }

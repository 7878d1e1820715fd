package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/use-agent/scrapeconsole/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS scrape_jobs (
	id            UUID PRIMARY KEY,
	base_url      TEXT NOT NULL,
	css_selector  TEXT NOT NULL,
	required_keys TEXT[] NOT NULL,
	max_pages     INT NOT NULL,
	status        TEXT NOT NULL,
	records       INT NOT NULL DEFAULT 0,
	pages         INT NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scrape_jobs_started_at_idx ON scrape_jobs (started_at DESC);
`

// PostgresStore is a JobStore backed by a pgx connection pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and creates the jobs table.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate scrape_jobs: %w", err)
	}
	return &PostgresStore{Pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, job models.JobRecord) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO scrape_jobs
		 (id, base_url, css_selector, required_keys, max_pages, status, records, pages, error, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		job.ID, job.BaseURL, job.CSSSelector, job.RequiredKeys, job.MaxPages,
		job.Status, job.Records, job.Pages, job.Error, job.StartedAt, job.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]models.JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id::text, base_url, css_selector, required_keys, max_pages, status,
		        records, pages, error, started_at, finished_at
		 FROM scrape_jobs ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.JobRecord, error) {
		var j models.JobRecord
		err := row.Scan(
			&j.ID, &j.BaseURL, &j.CSSSelector, &j.RequiredKeys, &j.MaxPages, &j.Status,
			&j.Records, &j.Pages, &j.Error, &j.StartedAt, &j.FinishedAt,
		)
		return j, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}
	return jobs, nil
}

func (s *PostgresStore) Close() {
	s.Pool.Close()
}

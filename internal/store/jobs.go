// Package store implements PostgreSQL persistence for jobs and subscriptions.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobwatch/notify-service/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// JobStore owns the jobs table. Rows are immutable after insert and
// deduplicated by source url.
type JobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore returns a configured JobStore.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// PersistNew inserts the subset of drafts whose url is not already stored,
// in input order, inside a single transaction. It returns only the newly
// inserted postings with their assigned ids and timestamps. A transaction
// failure aborts the whole batch — no partial insert.
func (s *JobStore) PersistNew(ctx context.Context, drafts []model.JobDraft) ([]model.JobPosting, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("persist jobs: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	inserted := make([]model.JobPosting, 0, len(drafts))
	for _, d := range drafts {
		if d.URL == "" {
			continue
		}

		var job model.JobPosting
		err := tx.QueryRow(ctx,
			`INSERT INTO jobs (title, employer, location, salary, content, url, time)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (url) DO NOTHING
			 RETURNING id, created_at`,
			d.Title, d.Employer, d.Location, d.Salary, d.Content, d.URL, d.Time,
		).Scan(&job.ID, &job.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			continue // duplicate url — skipped
		}
		if err != nil {
			return nil, fmt.Errorf("persist jobs: insert %q: %w", d.URL, err)
		}

		job.Title = d.Title
		job.Employer = d.Employer
		job.Location = d.Location
		job.Salary = d.Salary
		job.Content = d.Content
		job.URL = d.URL
		job.Time = d.Time
		inserted = append(inserted, job)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("persist jobs: commit: %w", err)
	}

	return inserted, nil
}

// GetByURL resolves a persisted posting by its canonical source url.
// Returns ErrNotFound when absent.
func (s *JobStore) GetByURL(ctx context.Context, url string) (model.JobPosting, error) {
	var job model.JobPosting
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, employer, location, salary, content, url, time, created_at
		 FROM jobs WHERE url = $1`,
		url,
	).Scan(
		&job.ID, &job.Title, &job.Employer, &job.Location, &job.Salary,
		&job.Content, &job.URL, &job.Time, &job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.JobPosting{}, ErrNotFound
	}
	if err != nil {
		return model.JobPosting{}, fmt.Errorf("get job by url: %w", err)
	}
	return job, nil
}

// Recent returns the n most recently persisted postings, newest first.
// Used as the fallback source when the latest-jobs cache is cold.
func (s *JobStore) Recent(ctx context.Context, n int) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, employer, location, salary, content, url, time, created_at
		 FROM jobs ORDER BY created_at DESC, id DESC LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent jobs query: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.JobPosting, 0, n)
	for rows.Next() {
		var job model.JobPosting
		if err := rows.Scan(
			&job.ID, &job.Title, &job.Employer, &job.Location, &job.Salary,
			&job.Content, &job.URL, &job.Time, &job.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("recent jobs scan: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

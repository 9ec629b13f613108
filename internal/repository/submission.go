package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSubmissionNotFound = errors.New("submission not found")

type SubmissionStatus string

const (
	SubmissionQueued    SubmissionStatus = "queued"
	SubmissionApplied   SubmissionStatus = "applied"
	SubmissionRetrying  SubmissionStatus = "retrying"
	SubmissionAbandoned SubmissionStatus = "abandoned"
)

// Submission is one product form submission and its latest outcome
type Submission struct {
	ID          string           `json:"id"`
	DraftID     string           `json:"draftId"`
	ProductID   string           `json:"productId"`
	Paths       [][]string       `json:"paths"`
	CategoryIDs []string         `json:"categoryIds"`
	Status      SubmissionStatus `json:"status"`
	Attempts    int              `json:"attempts"`
	LastError   string           `json:"lastError,omitempty"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
}

type submissionRepository struct {
	db *pgxpool.Pool
}

func NewSubmissionRepository(db *pgxpool.Pool) SubmissionRepository {
	return &submissionRepository{
		db: db,
	}
}

const createSubmissionsTable = `
CREATE TABLE IF NOT EXISTS product_submissions (
	id           TEXT PRIMARY KEY,
	draft_id     TEXT NOT NULL,
	product_id   TEXT NOT NULL DEFAULT '',
	paths        JSONB NOT NULL,
	category_ids TEXT[] NOT NULL,
	status       TEXT NOT NULL,
	attempts     INT NOT NULL DEFAULT 0,
	last_error   TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate creates the submissions table when it is missing
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, createSubmissionsTable); err != nil {
		return fmt.Errorf("failed to create product_submissions: %w", err)
	}
	return nil
}

func (r *submissionRepository) SaveSubmission(ctx context.Context, s *Submission) error {
	query := `
	INSERT INTO product_submissions (id, draft_id, product_id, paths, category_ids, status, attempts, last_error, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	ON CONFLICT (id)
	DO UPDATE SET product_id = $3, status = $6, attempts = $7, last_error = $8, updated_at = now()`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.DraftID, s.ProductID, s.Paths, s.CategoryIDs, string(s.Status), s.Attempts, s.LastError)
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", s.ID, err)
	}

	return nil
}

func (r *submissionRepository) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	query := `
	SELECT id, draft_id, product_id, paths, category_ids, status, attempts, last_error, updated_at
	FROM product_submissions WHERE id = $1`

	var s Submission
	var status string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.DraftID, &s.ProductID, &s.Paths, &s.CategoryIDs, &status, &s.Attempts, &s.LastError, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission %s: %w", id, err)
	}
	s.Status = SubmissionStatus(status)

	return &s, nil
}

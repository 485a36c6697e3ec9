package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/entity"
)

// JobRepository persists processing jobs and their lifecycle status.
type JobRepository interface {
	Create(ctx context.Context, job *entity.ProcessingJob) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error
	Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error)
	GetByDocumentID(ctx context.Context, documentID string) (*entity.ProcessingJob, error)
}

// DecisionRepository stores completed decisions. Decisions are append-only:
// reprocessing a document adds a new row, and reads return the latest one.
type DecisionRepository interface {
	Save(ctx context.Context, decision *entity.Decision) error
	GetByDocumentID(ctx context.Context, documentID string) (*entity.Decision, error)
	// List returns the latest decisions processed inside [from, to],
	// newest first, capped at limit.
	List(ctx context.Context, from, to time.Time, limit int) ([]*entity.Decision, error)
}

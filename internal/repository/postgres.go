package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/common"
	"github.com/rocktruck/doc-validator/internal/entity"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema applies the idempotent schema on startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type pgJobRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewJobRepository(pool *pgxpool.Pool, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &pgJobRepo{pool: pool, log: log}
}

func (r *pgJobRepo) Create(ctx context.Context, job *entity.ProcessingJob) error {
	identity, err := json.Marshal(job.IdentityData)
	if err != nil {
		return fmt.Errorf("encode identity data: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO processing_jobs
			(id, document_id, variant, file_url, file_name, identity_data, response_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.DocumentID, job.Variant, job.FileURL, job.FileName,
		identity, job.ResponseURL, string(job.Status), job.CreatedAt,
	)
	if err != nil {
		r.log.Error("job create failed", "job_id", job.ID, "err", err)
		return common.WrapError(common.ErrDatabase, err.Error())
	}
	r.log.Info("job created", "job_id", job.ID, "document_id", job.DocumentID)
	return nil
}

func (r *pgJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE processing_jobs SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		r.log.Error("job status update failed", "job_id", id, "err", err)
		return common.WrapError(common.ErrDatabase, err.Error())
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgJobRepo) Get(ctx context.Context, id uuid.UUID) (*entity.ProcessingJob, error) {
	return r.scanJob(r.pool.QueryRow(ctx, `
		SELECT id, document_id, variant, file_url, file_name, identity_data, response_url, status, created_at
		FROM processing_jobs WHERE id = $1`, id))
}

func (r *pgJobRepo) GetByDocumentID(ctx context.Context, documentID string) (*entity.ProcessingJob, error) {
	return r.scanJob(r.pool.QueryRow(ctx, `
		SELECT id, document_id, variant, file_url, file_name, identity_data, response_url, status, created_at
		FROM processing_jobs WHERE document_id = $1
		ORDER BY created_at DESC LIMIT 1`, documentID))
}

func (r *pgJobRepo) scanJob(row pgx.Row) (*entity.ProcessingJob, error) {
	var (
		job      entity.ProcessingJob
		identity []byte
		status   string
	)
	err := row.Scan(&job.ID, &job.DocumentID, &job.Variant, &job.FileURL, &job.FileName,
		&identity, &job.ResponseURL, &status, &job.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	job.Status = constants.JobStatus(status)
	if len(identity) > 0 {
		if err := json.Unmarshal(identity, &job.IdentityData); err != nil {
			return nil, fmt.Errorf("decode identity data: %w", err)
		}
	}
	return &job, nil
}

type pgDecisionRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewDecisionRepository(pool *pgxpool.Pool, log *slog.Logger) DecisionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &pgDecisionRepo{pool: pool, log: log}
}

func (r *pgDecisionRepo) Save(ctx context.Context, decision *entity.Decision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO decisions (document_id, variant, status, payload, processed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		decision.DocumentID, decision.Variant, string(decision.Status), payload, decision.ProcessedAt,
	)
	if err != nil {
		r.log.Error("decision save failed", "document_id", decision.DocumentID, "err", err)
		return common.WrapError(common.ErrDatabase, err.Error())
	}
	r.log.Info("decision saved",
		"document_id", decision.DocumentID,
		"status", string(decision.Status),
	)
	return nil
}

func (r *pgDecisionRepo) GetByDocumentID(ctx context.Context, documentID string) (*entity.Decision, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT payload FROM decisions
		WHERE document_id = $1
		ORDER BY processed_at DESC, id DESC LIMIT 1`, documentID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	var decision entity.Decision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}
	return &decision, nil
}

func (r *pgDecisionRepo) List(ctx context.Context, from, to time.Time, limit int) ([]*entity.Decision, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT ON (document_id) payload
		FROM decisions
		WHERE processed_at BETWEEN $1 AND $2
		ORDER BY document_id, processed_at DESC, id DESC
		LIMIT $3`, from, to, limit,
	)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer rows.Close()

	var out []*entity.Decision
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, common.WrapError(common.ErrDatabase, err.Error())
		}
		var d entity.Decision
		if err := json.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("decode decision: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

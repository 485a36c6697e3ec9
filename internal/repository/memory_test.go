package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/common"
	"github.com/rocktruck/doc-validator/internal/entity"
)

func TestMemoryJobStoreLifecycle(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := &entity.ProcessingJob{
		ID:         uuid.New(),
		DocumentID: "DOC-1",
		Variant:    "razon_social",
		Status:     constants.JobStatusPending,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, store.Create(ctx, job))

	require.NoError(t, store.UpdateStatus(ctx, job.ID, constants.JobStatusValidation))
	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusValidation, got.Status)

	_, err = store.Get(ctx, uuid.New())
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = store.UpdateStatus(ctx, uuid.New(), constants.JobStatusCompleted)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestMemoryJobStoreLatestByDocumentID(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	older := &entity.ProcessingJob{ID: uuid.New(), DocumentID: "DOC-1", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &entity.ProcessingJob{ID: uuid.New(), DocumentID: "DOC-1", CreatedAt: time.Now()}
	require.NoError(t, store.Create(ctx, older))
	require.NoError(t, store.Create(ctx, newer))

	got, err := store.GetByDocumentID(ctx, "DOC-1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestMemoryDecisionStoreAppendOnly(t *testing.T) {
	store := NewMemoryDecisionStore()
	ctx := context.Background()

	first := &entity.Decision{
		DocumentID:  "DOC-1",
		Status:      constants.DecisionRejected,
		ProcessedAt: time.Now().Add(-time.Hour),
	}
	second := &entity.Decision{
		DocumentID:  "DOC-1",
		Status:      constants.DecisionApproved,
		ProcessedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	got, err := store.GetByDocumentID(ctx, "DOC-1")
	require.NoError(t, err)
	assert.Equal(t, constants.DecisionApproved, got.Status)

	_, err = store.GetByDocumentID(ctx, "DOC-404")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestMemoryDecisionStoreListWindow(t *testing.T) {
	store := NewMemoryDecisionStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, &entity.Decision{DocumentID: "DOC-1", Status: constants.DecisionApproved, ProcessedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, store.Save(ctx, &entity.Decision{DocumentID: "DOC-2", Status: constants.DecisionRejected, ProcessedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, store.Save(ctx, &entity.Decision{DocumentID: "DOC-3", Status: constants.DecisionApproved, ProcessedAt: now.Add(-time.Hour)}))
	// A newer decision for DOC-2 supersedes the old one in listings.
	require.NoError(t, store.Save(ctx, &entity.Decision{DocumentID: "DOC-2", Status: constants.DecisionApproved, ProcessedAt: now}))

	out, err := store.List(ctx, now.Add(-24*time.Hour), now, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "DOC-2", out[0].DocumentID)
	assert.Equal(t, constants.DecisionApproved, out[0].Status)
	assert.Equal(t, "DOC-3", out[1].DocumentID)
}

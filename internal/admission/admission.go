package admission

import (
	"context"

	"github.com/rocktruck/doc-validator/internal/common"
)

// Index tracks document IDs that are currently being processed so the same
// document cannot be admitted twice concurrently. Register is atomic: exactly
// one of two racing callers wins.
type Index interface {
	// Register claims the document ID. It returns common.ErrDuplicateJob
	// wrapped when the ID is already claimed.
	Register(ctx context.Context, documentID string) error
	// Release frees the claim once processing reaches a terminal state.
	Release(ctx context.Context, documentID string) error
}

func duplicateErr(documentID string) error {
	return common.NewAppError("DUPLICATE_JOB", "document "+documentID+" is already being processed", common.ErrDuplicateJob)
}

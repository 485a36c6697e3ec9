package admission

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/internal/common"
)

func TestMemoryIndexRejectsDuplicate(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Register(ctx, "DOC-1"))

	err := idx.Register(ctx, "DOC-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDuplicateJob))

	// A different document is unaffected.
	assert.NoError(t, idx.Register(ctx, "DOC-2"))
}

func TestMemoryIndexReleaseAllowsReadmission(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Register(ctx, "DOC-1"))
	require.NoError(t, idx.Release(ctx, "DOC-1"))
	assert.NoError(t, idx.Register(ctx, "DOC-1"))
}

func TestMemoryIndexConcurrentRegisterSingleWinner(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	const racers = 32
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if idx.Register(ctx, "DOC-RACE") == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

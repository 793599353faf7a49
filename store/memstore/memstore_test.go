package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinfold/mixer/core"
)

func TestDepositRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewDepositRegistry()

	_, ok, err := registry.Lookup(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	contains, err := registry.Contains(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, contains)

	payout := []string{"A", "B"}
	require.NoError(t, registry.Register(ctx, "deposit-1", payout))

	// The store keeps its own copy in both directions.
	payout[0] = "mutated"
	addrs, ok, err := registry.Lookup(ctx, "deposit-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, addrs)

	addrs[1] = "mutated"
	again, _, err := registry.Lookup(ctx, "deposit-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, again)
}

func TestRequestStatusStore(t *testing.T) {
	ctx := context.Background()
	statuses := NewRequestStatusStore()

	// Absent is a distinct outcome from incomplete.
	_, ok, err := statuses.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, statuses.Put(ctx, "req-1", core.StatusIncomplete))
	status, ok, err := statuses.Get(ctx, "req-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, core.StatusIncomplete, status)

	require.NoError(t, statuses.Put(ctx, "req-1", core.StatusComplete))
	status, _, err = statuses.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusComplete, status)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	statuses := NewRequestStatusStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("req-%d", i)
			_ = statuses.Put(ctx, key, core.StatusIncomplete)
			_, _, _ = statuses.Get(ctx, key)
			_ = statuses.Put(ctx, key, core.StatusComplete)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		status, ok, err := statuses.Get(ctx, fmt.Sprintf("req-%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, core.StatusComplete, status)
	}
}

package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCommitOrder(t *testing.T) {
	quantities := []decimal.Decimal{
		decimal.RequireFromString("37.5"),
		decimal.RequireFromString("2.5"),
		decimal.RequireFromString("60"),
	}
	task := NewTask("req-1", quantities, []string{"A", "B"})

	require.Equal(t, 3, task.Remaining())

	for _, want := range quantities {
		got, ok := task.Peek()
		require.True(t, ok)
		assert.True(t, got.Equal(want), "expected %s, got %s", want, got)
		task.Commit()
	}

	_, ok := task.Peek()
	assert.False(t, ok)
	assert.Equal(t, 0, task.Remaining())
}

func TestTaskSnapshotsInputs(t *testing.T) {
	quantities := []decimal.Decimal{decimal.RequireFromString("1")}
	addresses := []string{"A", "B"}

	task := NewTask("req-2", quantities, addresses)

	addresses[0] = "mutated"
	assert.Equal(t, "A", task.Address(0))
	assert.Equal(t, 2, task.AddressCount())
}

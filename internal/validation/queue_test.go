package validation

import (
	"errors"
	"testing"

	"github.com/mabhi256/objstream/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Register_NilCallback(t *testing.T) {
	var q Queue
	err := q.Register(nil, 0)
	require.Error(t, err)
	assert.IsType(t, &model.InvalidObjectError{}, err)
}

func TestQueue_Drain_PriorityDescendingStableTies(t *testing.T) {
	var q Queue
	var order []int

	priorities := []int32{3, 1, 3, 2}
	for i, p := range priorities {
		i := i
		require.NoError(t, q.Register(func() error {
			order = append(order, i)
			return nil
		}, p))
	}

	require.NoError(t, q.Drain())
	// priorities at indices 0,1,2,3 are 3,1,3,2 -> descending order is
	// [0 (3), 2 (3), 3 (2), 1 (1)], ties (index 0 then 2) preserve
	// insertion order (§8 property 5).
	assert.Equal(t, []int{0, 2, 3, 1}, order)
}

func TestQueue_Drain_EmptiesRegardlessOfOutcome(t *testing.T) {
	var q Queue
	require.NoError(t, q.Register(func() error { return nil }, 0))
	assert.Equal(t, 1, q.Len())

	require.NoError(t, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Drain_StopsAtFirstFailure(t *testing.T) {
	var q Queue
	var ran []int
	boom := errors.New("boom")

	require.NoError(t, q.Register(func() error { ran = append(ran, 0); return nil }, 2))
	require.NoError(t, q.Register(func() error { ran = append(ran, 1); return boom }, 1))
	require.NoError(t, q.Register(func() error { ran = append(ran, 2); return nil }, 0))

	err := q.Drain()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0, 1}, ran)
	assert.Equal(t, 0, q.Len(), "queue is discarded even when a callback fails")
}

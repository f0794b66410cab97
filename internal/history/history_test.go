package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/pkg/types"
)

func msg(i int) types.ChatMessage {
	return types.ChatMessage{
		ID:       fmt.Sprintf("id-%d", i),
		Username: "alice",
		Text:     fmt.Sprintf("message %d", i),
		Ts:       int64(i),
	}
}

func TestAppendWithinCapacity(t *testing.T) {
	h := New(50)
	for i := 0; i < 10; i++ {
		h.Append(msg(i))
	}

	snap := h.Snapshot()
	require.Len(t, snap, 10)
	for i, m := range snap {
		assert.Equal(t, fmt.Sprintf("id-%d", i), m.ID)
	}
	assert.Equal(t, 10, h.Len())
}

func TestEvictsOldestFirst(t *testing.T) {
	const max = 50
	const extra = 7
	h := New(max)

	for i := 0; i < max+extra; i++ {
		h.Append(msg(i))
	}

	snap := h.Snapshot()
	require.Len(t, snap, max)
	// Stored sequence equals the last max appended, in original order.
	for i, m := range snap {
		assert.Equal(t, fmt.Sprintf("id-%d", i+extra), m.ID)
	}
}

func TestLenNeverExceedsMax(t *testing.T) {
	h := New(3)
	for i := 0; i < 20; i++ {
		h.Append(msg(i))
		assert.LessOrEqual(t, h.Len(), 3)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	h := New(5)
	h.Append(msg(0))

	snap := h.Snapshot()
	snap[0].Text = "mutated"

	assert.Equal(t, "message 0", h.Snapshot()[0].Text)
}

func TestSnapshotEmpty(t *testing.T) {
	h := New(5)
	assert.Empty(t, h.Snapshot())
	assert.Zero(t, h.Len())
}

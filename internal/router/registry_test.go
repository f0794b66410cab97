package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(id string) *Session {
	return &Session{
		id:      id,
		channel: &mockChannel{},
		state:   StateConnected,
	}
}

func TestRegisterAndCount(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("c1")
	r.Add(s)

	assert.Equal(t, 0, r.Count(), "unjoined sessions are not counted")

	require.NoError(t, r.Register("c1", "Alice"))
	assert.Equal(t, 1, r.Count())
	assert.Equal(t, "Alice", s.Username())
	assert.Equal(t, StateJoined, s.State())
}

func TestRegisterNameTakenCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestSession("c1"))
	r.Add(newTestSession("c2"))

	require.NoError(t, r.Register("c1", "Alice"))
	err := r.Register("c2", "ALICE")
	assert.ErrorIs(t, err, ErrNameTaken)
	assert.Equal(t, 1, r.Count(), "failed join must not grow the registry")
}

func TestRegisterUnknownSession(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register("ghost", "Alice"), ErrSessionNotFound)
}

func TestRemoveReleasesName(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestSession("c1"))
	require.NoError(t, r.Register("c1", "Alice"))

	r.Remove("c1")
	assert.Equal(t, 0, r.Count())

	// Name is free again.
	r.Add(newTestSession("c2"))
	assert.NoError(t, r.Register("c2", "alice"))
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestSession("c1"))
	r.Remove("c1")
	r.Remove("c1") // no-op, must not panic
	r.Remove("never-added")
}

func TestFindByName(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("c1")
	r.Add(s)
	require.NoError(t, r.Register("c1", "Alice"))

	found, ok := r.FindByName("aLiCe")
	require.True(t, ok)
	assert.Same(t, s, found)

	_, ok = r.FindByName("bob")
	assert.False(t, ok)
}

func TestJoinedAndAll(t *testing.T) {
	r := NewRegistry()
	r.Add(newTestSession("c1"))
	r.Add(newTestSession("c2"))
	require.NoError(t, r.Register("c1", "Alice"))

	assert.Len(t, r.All(), 2)
	joined := r.Joined()
	require.Len(t, joined, 1)
	assert.Equal(t, "c1", joined[0].ID())
}

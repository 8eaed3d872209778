package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *RedisStatus {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStatus("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStatusRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(42 * time.Second)
	require.NoError(t, s.Set(ctx, "/lib/One Piece", FolderStatus{
		State:    StateDone,
		Pages:    118,
		Message:  "ok",
		Start:    &start,
		End:      &end,
		Metadata: map[string]string{"run_id": "abc"},
	}))

	st, ok, err := s.Get(ctx, "/lib/One Piece")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateDone, st.State)
	assert.Equal(t, 118, st.Pages)
	assert.True(t, st.Start.Equal(start))
	assert.True(t, st.End.Equal(end))
	assert.Equal(t, "abc", st.Metadata["run_id"])
}

func TestStatusMissingAndForget(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "nowhere")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", FolderStatus{State: StateFailed}))
	require.NoError(t, s.Forget(ctx, "a"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStatus("redis://" + mr.Addr())
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}

func TestNewRedisStatusBadURL(t *testing.T) {
	_, err := NewRedisStatus("not a url")
	assert.Error(t, err)
}

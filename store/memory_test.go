package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recblend/core"
)

func TestMemoryStore_KV(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ZRange(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.ZAdd(ctx, "z", 1, "low"))
	require.NoError(t, s.ZAdd(ctx, "z", 3, "high"))
	require.NoError(t, s.ZAdd(ctx, "z", 2, "mid"))
	require.NoError(t, s.ZAdd(ctx, "z", 5, "low")) // 更新分数

	all, err := s.ZRange(ctx, "z", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "high", "mid"}, all)

	top, err := s.ZRange(ctx, "z", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "high"}, top)

	empty, err := s.ZRange(ctx, "nope", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	score, err := s.ZScore(ctx, "z", "mid")
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)

	_, err = s.ZScore(ctx, "z", "none")
	assert.True(t, core.IsStoreNotFound(err))
}

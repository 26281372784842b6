package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxellab/greenlight/types"
)

func setupCache(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	m, err := NewManager(Config{Addr: mr.Addr(), DefaultTTL: time.Minute}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSetAndGet(t *testing.T) {
	m := setupCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestGetMiss(t *testing.T) {
	m := setupCache(t)

	_, err := m.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestJSONRoundTrip(t *testing.T) {
	m := setupCache(t)
	ctx := context.Background()

	in := &types.RawAnalysis{
		ID:     "analysis-1",
		Scores: types.TrinityScores{Physics: 9, Vibe: 4, Logic: 6},
		Facts:  types.VisualFacts{PrimarySubject: "red running shoe"},
	}
	key := AnalysisKey("https://img.example/shoe.png")
	require.NoError(t, m.SetJSON(ctx, key, in, 0))

	var out types.RawAnalysis
	require.NoError(t, m.GetJSON(ctx, key, &out))
	assert.Equal(t, in.Scores, out.Scores)
	assert.Equal(t, "red running shoe", out.Facts.PrimarySubject)
}

func TestDelete(t *testing.T) {
	m := setupCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, m.Delete(ctx, "k"))

	_, err := m.Get(ctx, "k")
	assert.True(t, IsCacheMiss(err))
}

func TestAnalysisKey(t *testing.T) {
	a := AnalysisKey("https://img.example/shoe.png")
	b := AnalysisKey("https://img.example/shoe.png")
	c := AnalysisKey("https://img.example/other.png")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "greenlight:analysis:")
}

func TestClosedManager(t *testing.T) {
	m := setupCache(t)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}

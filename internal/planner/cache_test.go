package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanCachePutGetRecordsHitsAndMisses(t *testing.T) {
	c, err := NewPlanCache(2, nil)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	require.False(t, ok)

	stmt := PreparedStatement{ID: "q1", Schema: []ParamSchema{{Name: "x", Kind: "int"}}}
	c.Put(stmt)

	got, ok := c.Get("q1")
	require.True(t, ok)
	require.Equal(t, stmt.ID, got.ID)

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
	require.Equal(t, 1, stats.Size)
}

func TestPlanCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewPlanCache(2, nil)
	require.NoError(t, err)

	c.Put(PreparedStatement{ID: "a"})
	c.Put(PreparedStatement{ID: "b"})
	c.Put(PreparedStatement{ID: "c"})

	_, ok := c.Get("a")
	require.False(t, ok)

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Evictions)
	require.Equal(t, 2, stats.Size)
}

func TestPlanCacheRemove(t *testing.T) {
	c, err := NewPlanCache(2, nil)
	require.NoError(t, err)
	c.Put(PreparedStatement{ID: "a"})
	c.Remove("a")
	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestBindParamsErrorsOnMissingParam(t *testing.T) {
	stmt := PreparedStatement{
		ID:     "q1",
		Schema: []ParamSchema{{Name: "a", Kind: "int"}, {Name: "b", Kind: "string"}},
	}
	err := BindParams(stmt, map[string]ParamValue{"a": {Kind: "int", Int: 1}})
	require.ErrorIs(t, err, ErrUnboundParameter)
}

func TestBindParamsSucceedsWhenAllBound(t *testing.T) {
	stmt := PreparedStatement{
		ID:     "q1",
		Schema: []ParamSchema{{Name: "a", Kind: "int"}},
	}
	err := BindParams(stmt, map[string]ParamValue{"a": {Kind: "int", Int: 1}})
	require.NoError(t, err)
}

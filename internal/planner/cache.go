package planner

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"go.uber.org/zap"
)

// ParamValue is one bound parameter value for a prepared statement.
type ParamValue struct {
	Kind  string // "string" | "int" | "float" | "bool" | "bytes"
	Text  string
	Int   int64
	Float float64
	Bool  bool
	Bytes []byte
}

// ParamSchema names and types a prepared statement's expected parameters,
// in positional order.
type ParamSchema struct {
	Name string
	Kind string
}

// PreparedID is an opaque handle returned by Prepare.
type PreparedID string

// PreparedStatement pairs a parsed LogicalPlan with its parameter schema.
type PreparedStatement struct {
	ID     PreparedID
	Plan   LogicalPlan
	Schema []ParamSchema
}

// CacheStats reports the cache's cumulative hit/miss/eviction counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// PlanCache is an LRU map from PreparedID to PreparedStatement (spec.md
// §4.5 "Prepared-statement cache"). Grounded on the teacher/pack's use of
// github.com/hashicorp/golang-lru/v2 for bounded in-process caches.
type PlanCache struct {
	mu        sync.Mutex
	inner     *lru.Cache[PreparedID, PreparedStatement]
	hits      uint64
	misses    uint64
	evictions uint64
	log       *zap.Logger
}

// NewPlanCache constructs a PlanCache holding at most capacity entries.
func NewPlanCache(capacity int, log *zap.Logger) (*PlanCache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &PlanCache{log: log}
	inner, err := lru.NewWithEvict(capacity, func(_ PreparedID, _ PreparedStatement) {
		// Runs synchronously inside Put or Remove, which already hold c.mu.
		c.evictions++
	})
	if err != nil {
		return nil, err
	}
	c.inner = inner
	return c, nil
}

// Put inserts or replaces stmt under its ID.
func (c *PlanCache) Put(stmt PreparedStatement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Add(stmt.ID, stmt)
}

// Get looks up id, recording a hit or miss. Callers must re-prepare on a
// miss (spec.md §4.5 "On lookup: if missing, caller must re-prepare").
func (c *PlanCache) Get(id PreparedID) (PreparedStatement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stmt, ok := c.inner.Get(id)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return stmt, ok
}

// Remove evicts id from the cache, if present.
func (c *PlanCache) Remove(id PreparedID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Remove(id)
}

// Stats returns a snapshot of the cache's cumulative counters.
func (c *PlanCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Size: c.inner.Len()}
}

// BindParams resolves stmt's schema against bound values, returning
// ErrUnboundParameter for any schema entry with no corresponding value.
func BindParams(stmt PreparedStatement, bound map[string]ParamValue) error {
	for _, param := range stmt.Schema {
		if _, ok := bound[param.Name]; !ok {
			return ErrUnboundParameter
		}
	}
	return nil
}

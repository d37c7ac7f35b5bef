package insights

import "golang.org/x/exp/slices"

// Growth caps applied throughout ingestion and clustering. These keep a
// pathological or adversarial log volume (millions of distinct query
// strings) from exhausting the memory of a request-scoped invocation:
// once a cap is hit, rows for new keys are dropped while existing keys
// keep accumulating. Partial results beat a crashed run.
const (
	maxQueryKeys            = 5000
	maxCategoryKeys         = 1000
	maxCanonicalKeys        = 2000
	maxVariantsPerCanonical = 500
	maxVariantsForDistance  = 200
	maxVariantsPerCluster   = 8
)

// cappedMap is an insertion-ordered string-keyed map that refuses new keys
// once limit is reached. There is deliberately no eviction: exclusion of
// new keys, not LRU turnover, is what bounds the memory here.
type cappedMap[V any] struct {
	limit  int
	keys   []string
	values map[string]V
}

func newCappedMap[V any](limit int) *cappedMap[V] {
	return &cappedMap[V]{
		limit:  limit,
		values: make(map[string]V),
	}
}

func (m *cappedMap[V]) get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// getOrCreate returns the value for key, creating it with create if the key
// can still be admitted. The second return reports whether the key is
// tracked; false means the cap rejected it and the caller should drop the
// row.
func (m *cappedMap[V]) getOrCreate(key string, create func() V) (V, bool) {
	if v, ok := m.values[key]; ok {
		return v, true
	}
	if len(m.keys) >= m.limit {
		var zero V
		return zero, false
	}
	v := create()
	m.values[key] = v
	m.keys = append(m.keys, key)
	return v, true
}

func (m *cappedMap[V]) len() int {
	return len(m.keys)
}

// orderedKeys returns the admitted keys in insertion order.
func (m *cappedMap[V]) orderedKeys() []string {
	return slices.Clone(m.keys)
}

// cappedCounter counts occurrences per key with the same admission rule as
// cappedMap.
type cappedCounter struct {
	inner *cappedMap[*int]
}

func newCappedCounter(limit int) *cappedCounter {
	return &cappedCounter{inner: newCappedMap[*int](limit)}
}

// add increments the count for key, reporting whether the key is tracked.
func (c *cappedCounter) add(key string) bool {
	n, ok := c.inner.getOrCreate(key, func() *int { return new(int) })
	if !ok {
		return false
	}
	*n++
	return true
}

func (c *cappedCounter) count(key string) int {
	n, ok := c.inner.get(key)
	if !ok {
		return 0
	}
	return *n
}

func (c *cappedCounter) len() int {
	return c.inner.len()
}

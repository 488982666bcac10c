package workspace

// memo caches the last result of a pure function by its input key.
type memo[K comparable, V any] struct {
	key K
	val V
	set bool
}

func (m *memo[K, V]) get(key K, compute func() V) V {
	if m.set && m.key == key {
		return m.val
	}
	m.key, m.val, m.set = key, compute(), true
	return m.val
}

package cmap

import "iter"

// All returns an iterator over all key-value pairs. Locks are taken
// shard by shard, so the view is not a consistent snapshot.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, s := range m.shards {
			s.mu.RLock()
			for k, v := range s.items {
				if !yield(k, v) {
					s.mu.RUnlock()
					return
				}
			}
			s.mu.RUnlock()
		}
	}
}

// Keys returns all keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Count())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// GetOrSet returns the existing value for key, or stores and returns
// value if the key is absent. The second result reports whether the
// key already existed.
func (m *Map[K, V]) GetOrSet(key K, value V) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[key]; ok {
		return existing, true
	}
	s.items[key] = value
	return value, false
}

// Pop removes key and returns its value, if present.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	val, ok := s.items[key]
	if ok {
		delete(s.items, key)
	}
	return val, ok
}

// Update applies fn to the current value under key, holding the shard
// lock for the duration, and stores the result.
func (m *Map[K, V]) Update(key K, fn func(value V, exists bool) V) V {
	s := m.getShard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[key]
	updated := fn(existing, exists)
	s.items[key] = updated
	return updated
}

// Package cmap provides a sharded concurrent map for CredVault.
//
// The map splits its keyspace across a power-of-2 number of shards,
// each with its own RWMutex, so concurrent access to different keys
// rarely contends. It backs the in-memory key-value store.
//
// Usage:
//
//	m := cmap.New[string, []byte]()
//	m.Set("key", value)
//	val, ok := m.Get("key")
//
//	for k, v := range m.All() {
//		...
//	}
//
// All operations are safe for concurrent use. Iteration locks one
// shard at a time and does not present a consistent snapshot.
package cmap

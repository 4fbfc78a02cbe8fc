// Package memory provides in-memory storage for CredVault.
//
// It implements the kv.Store interface using a sharded concurrent map.
// The store is volatile and intended for tests and storage-less operation.
//
// Thread Safety:
//
// All operations are thread-safe through fine-grained locking.
// Read operations use RLock, write operations use Lock.
package memory

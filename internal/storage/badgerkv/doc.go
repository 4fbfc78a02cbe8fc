// Package badgerkv provides durable key-value storage using Badger v3.
//
// It implements the kv.Store interface for agent deployments that need
// credential state to survive restarts without managing flat files.
// A background loop garbage collects the value log.
package badgerkv

// Package kv defines the durable key-value contract for credential
// persistence.
//
// The interface deliberately mirrors a browser-style storage surface
// (get/set/remove over string keys and values) so that adapters can be
// backed by anything from an in-memory map to BadgerDB. Values are
// opaque to the store; encryption happens above this layer.
package kv

// Package kv provides the durable string key-value store the client keeps its state in.
//
// # Backends
//
// [Store] is implemented by:
//   - [SQLiteStore] : default, a single kv_entries table created by the shared migrations
//   - [RedisStore] : keys under a configurable prefix, for shared or ephemeral setups
//   - [MemoryStore] : process-local, used by tests and the "memory" driver
//
// [Open] builds the backend selected by [shared.StorageConfig].
//
// # Change Notifications
//
// [Observable] wraps any Store and publishes an [Event] after each successful Set, Delete or MultiDelete.
// Writers (login, logout) only talk to the store; readers such as the session gate call [Observable.Watch]
// to learn about changes without the writer knowing they exist.
// Delivery is best effort and coalesced: subscribers should treat an event as "re-read the key".
//
// # Write Queue
//
// [Writer] serializes asynchronous writes of a single key on one goroutine.
// Only the most recent pending value is kept, so writes complete in order and the last snapshot wins.
// Failures are logged and dropped.
package kv

// Package session decides whether the user is signed in.
//
// The only source of truth is the credential token under a single storage key. A [Gate] watches that
// key and exposes the derived [State]. A [Manager] writes and deletes the key on login, registration and logout.
// The two never call each other. The gate learns about changes from [kv.Watcher] events when the store publishes them.
// It also re-reads the key on a fixed interval, which covers writes from other processes.
package session

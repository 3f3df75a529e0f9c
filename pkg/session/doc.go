/*
Package session keeps editor sessions in a key-value store.

Each session is a persisted editor.State. Every access to a session runs under a
per-session lock: reference-counted in process, and optionally backed by a
ports.DistributedLocker so several replicas of the HTTP server can share one store.
Remote saves run outside the lock and are guarded by a persisted in-flight flag.
*/
package session

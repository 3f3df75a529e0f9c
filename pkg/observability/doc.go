/*
Package observability turns editor hooks into Prometheus metrics and structured
log records.

Both are exposed as domain.Hooks, so they can be merged and handed to the
editor without it knowing which backend is listening.
*/
package observability

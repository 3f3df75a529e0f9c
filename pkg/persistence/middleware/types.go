// Package middleware wraps key-value stores with extra behavior.
package middleware

import "github.com/aretw0/lattice/pkg/ports"

// Middleware allows wrapping a KVStore to add behavior.
type Middleware func(ports.KVStore) ports.KVStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(kv ports.KVStore, mws ...Middleware) ports.KVStore {
	for i := len(mws) - 1; i >= 0; i-- {
		kv = mws[i](kv)
	}
	return kv
}

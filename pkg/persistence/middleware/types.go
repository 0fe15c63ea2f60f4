package middleware

import (
	"context"
	"errors"

	"github.com/aretw0/funnel/pkg/ports"
)

// Middleware allows wrapping a KeyValueStore to add behavior.
type Middleware func(ports.KeyValueStore) ports.KeyValueStore

// ErrListUnsupported is returned by List when the wrapped store cannot enumerate keys.
var ErrListUnsupported = errors.New("wrapped store does not support listing")

// Chain wraps store with mws. The first middleware is the outermost.
func Chain(store ports.KeyValueStore, mws ...Middleware) ports.KeyValueStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}

func listNext(ctx context.Context, next ports.KeyValueStore, prefix string) ([]string, error) {
	l, ok := next.(ports.Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	return l.List(ctx, prefix)
}

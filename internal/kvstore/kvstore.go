// Package kvstore provides the durable key-value backends the catalog
// persists into, plus a fail-soft adapter over them.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no entry exists under the name.
var ErrNotFound = errors.New("kvstore: entry not found")

// Store is a named-entry key-value backend. Values are opaque bytes;
// callers decide the encoding.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, value []byte) error
	Remove(ctx context.Context, name string) error
	Ping(ctx context.Context) error
}

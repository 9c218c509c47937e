package kvstore

import (
	"context"

	"go.uber.org/zap"
)

// Adapter is the fail-soft layer the catalog talks to. The in-memory
// state stays authoritative for the session, so storage faults are
// logged and absorbed here instead of surfacing to mutation callers:
// reads fall back to a default envelope, writes and removes are
// best-effort.
type Adapter struct {
	store    Store
	fallback []byte
	log      *zap.Logger
}

// NewAdapter wraps store. fallback is returned by Read whenever the
// store is absent, the entry is missing, or the read fails. A nil
// store is tolerated and treated as permanently empty.
func NewAdapter(store Store, fallback []byte, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{store: store, fallback: fallback, log: log}
}

// Read returns the serialized entry, or the fallback envelope if the
// entry is absent or unreadable. Never returns an error.
func (a *Adapter) Read(ctx context.Context, name string) []byte {
	if a.store == nil {
		return a.fallback
	}

	data, err := a.store.Read(ctx, name)
	if err == ErrNotFound {
		return a.fallback
	}
	if err != nil {
		a.log.Warn("kv read failed, using empty envelope",
			zap.String("name", name),
			zap.Error(err),
		)
		return a.fallback
	}
	if len(data) == 0 {
		return a.fallback
	}
	return data
}

// Write stores the serialized entry. Faults are logged, not returned.
func (a *Adapter) Write(ctx context.Context, name string, value []byte) {
	if a.store == nil {
		return
	}

	if err := a.store.Write(ctx, name, value); err != nil {
		a.log.Warn("kv write failed, in-memory state unaffected",
			zap.String("name", name),
			zap.Int("bytes", len(value)),
			zap.Error(err),
		)
	}
}

// Remove deletes the entry. Faults are logged, not returned.
func (a *Adapter) Remove(ctx context.Context, name string) {
	if a.store == nil {
		return
	}

	if err := a.store.Remove(ctx, name); err != nil {
		a.log.Warn("kv remove failed",
			zap.String("name", name),
			zap.Error(err),
		)
	}
}

// Ping reports backend health; a nil store is healthy by definition.
func (a *Adapter) Ping(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Ping(ctx)
}

package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store holds the catalog in memory and is the authoritative state for
// the session. Mutations apply synchronously under the lock and hand
// their snapshot to the persister before releasing it, so the write
// queue sees snapshots in mutation order. Insertion order is preserved
// and is the display order.
type Store struct {
	mu       sync.RWMutex
	products []Product

	persist *Persister
	log     *zap.Logger
}

// NewStore builds an empty store wired to the given persister. Call
// Hydrate before serving if a previous session may have persisted
// state.
func NewStore(persist *Persister, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{persist: persist, log: log}
}

// Hydrate replaces the in-memory catalog with the persisted envelope.
// Missing or corrupt persisted state hydrates to empty.
func (s *Store) Hydrate(ctx context.Context) {
	products := s.persist.Load(ctx)

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()

	s.log.Info("catalog hydrated", zap.Int("products", len(products)))
}

// Snapshot returns a copy of the catalog in insertion order.
func (s *Store) Snapshot() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

// Get returns the product with the given id.
func (s *Store) Get(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Len reports the number of products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// AddProduct validates the candidate, assigns a fresh id and creation
// timestamp, and appends it. A rejected candidate leaves the catalog
// untouched and reports a sentinel error; nothing is thrown at the
// view layer.
func (s *Store) AddProduct(in ProductInput) (Product, error) {
	price, err := in.Price.Float()
	if err != nil || price < 0 {
		s.log.Warn("add rejected: invalid price",
			zap.String("name", in.Name),
			zap.String("price", string(in.Price)),
		)
		return Product{}, ErrInvalidPrice
	}
	if in.Image == "" {
		s.log.Warn("add rejected: image required", zap.String("name", in.Name))
		return Product{}, ErrImageRequired
	}

	p := Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       price,
		Image:       in.Image,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.products = append(s.products, p)
	s.persist.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	return p, nil
}

// UpdateProduct merges the patch onto the product with the given id.
// An unknown id is a no-op, reported via ok=false. A price that fails
// coercion (or would go negative) keeps the prior price; an empty
// image keeps the prior image. ID and CreatedAt are never altered.
func (s *Store) UpdateProduct(id string, patch ProductPatch) (Product, bool) {
	s.mu.Lock()

	idx := -1
	for i := range s.products {
		if s.products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return Product{}, false
	}

	p := &s.products[idx]
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		if f, err := patch.Price.Float(); err == nil && f >= 0 {
			p.Price = f
		} else {
			s.log.Warn("update kept prior price",
				zap.String("id", id),
				zap.String("price", string(*patch.Price)),
			)
		}
	}
	if patch.Image != nil && *patch.Image != "" {
		p.Image = *patch.Image
	}

	updated := *p
	s.persist.Enqueue(s.snapshotLocked())
	s.mu.Unlock()

	return updated, true
}

// DeleteProduct removes the product with the given id; an unknown id
// is a no-op. The context is accepted for symmetry with operations
// that await storage; the in-memory removal itself is immediate.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()

	n := 0
	for _, p := range s.products {
		if p.ID != id {
			s.products[n] = p
			n++
		}
	}
	changed := n != len(s.products)
	s.products = s.products[:n]
	if changed {
		s.persist.Enqueue(s.snapshotLocked())
	}
	s.mu.Unlock()

	return nil
}

// ClearStorage empties the catalog and destroys the persisted
// envelope, waiting until the removal reached the store.
func (s *Store) ClearStorage(ctx context.Context) error {
	s.mu.Lock()
	s.products = nil
	s.persist.Remove()
	s.mu.Unlock()

	return s.persist.Sync(ctx)
}

// Ping reports storage health for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.persist.Ping(ctx)
}

func (s *Store) snapshotLocked() []Product {
	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out
}

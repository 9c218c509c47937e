package catalog

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ProductVault/internal/kvstore"
)

// StorageName is the fixed key the catalog envelope is persisted under.
const StorageName = "product-storage"

// EmptyEnvelope is what a fresh read yields when nothing was ever
// persisted.
var EmptyEnvelope = []byte(`{"products":[]}`)

type envelope struct {
	Products []Product `json:"products"`
}

type persistOp struct {
	remove   bool
	snapshot []Product
	barrier  chan struct{}
}

// Persister mirrors the in-memory catalog into the durable adapter.
// Mutations hand it a snapshot and return immediately; a single
// background goroutine issues adapter writes in enqueue order,
// coalescing bursts so only the latest snapshot of a burst touches
// storage. The adapter absorbs storage faults, so a failed write
// costs durability across restarts, never session state.
type Persister struct {
	adapter *kvstore.Adapter
	log     *zap.Logger

	mu     sync.Mutex
	closed bool
	ops    chan persistOp
	done   chan struct{}

	writes   prometheus.Counter
	removes  prometheus.Counter
	products prometheus.Gauge
}

func NewPersister(adapter *kvstore.Adapter, reg *prometheus.Registry, log *zap.Logger) *Persister {
	if log == nil {
		log = zap.NewNop()
	}

	p := &Persister{
		adapter: adapter,
		log:     log,
		ops:     make(chan persistOp, 128),
		done:    make(chan struct{}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_persist_writes_total",
			Help: "Envelope writes issued to the key-value store",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_persist_removes_total",
			Help: "Envelope removals issued to the key-value store",
		}),
		products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently held in memory",
		}),
	}

	if reg != nil {
		reg.MustRegister(p.writes, p.removes, p.products)
	}

	go p.run()
	return p
}

// Load reads and parses the persisted envelope. A missing entry,
// unreadable store, or corrupt payload all hydrate to an empty
// catalog.
func (p *Persister) Load(ctx context.Context) []Product {
	data := p.adapter.Read(ctx, StorageName)

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		p.log.Warn("persisted envelope is corrupt, starting empty",
			zap.String("name", StorageName),
			zap.Error(err),
		)
		p.products.Set(0)
		return nil
	}

	p.products.Set(float64(len(env.Products)))
	return env.Products
}

// Enqueue schedules a write of the given snapshot. It never blocks on
// storage and is a no-op after Close.
func (p *Persister) Enqueue(snapshot []Product) {
	p.send(persistOp{snapshot: snapshot})
}

// Remove schedules destruction of the persisted envelope. Like
// Enqueue it never blocks on storage; pair it with Sync to await the
// removal.
func (p *Persister) Remove() {
	p.send(persistOp{remove: true})
}

// Sync blocks until every operation enqueued so far has been issued
// to the adapter. Mutation callers never need this; the shutdown path
// and tests do.
func (p *Persister) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	if !p.send(persistOp{barrier: barrier}) {
		return nil
	}

	select {
	case <-barrier:
		return nil
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping reports health of the underlying store.
func (p *Persister) Ping(ctx context.Context) error {
	return p.adapter.Ping(ctx)
}

// Close stops the background writer after draining pending work.
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ops)
	p.mu.Unlock()

	<-p.done
}

func (p *Persister) send(op persistOp) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.ops <- op
	return true
}

func (p *Persister) run() {
	defer close(p.done)

	for op := range p.ops {
		batch := []persistOp{op}
	drain:
		for {
			select {
			case next, ok := <-p.ops:
				if !ok {
					break drain
				}
				batch = append(batch, next)
			default:
				break drain
			}
		}
		p.apply(batch)
	}
}

// apply issues the newest state operation of the batch (earlier ones
// are superseded, each snapshot is the full state), then releases any
// barriers.
func (p *Persister) apply(batch []persistOp) {
	var last *persistOp
	for i := range batch {
		if batch[i].barrier == nil {
			last = &batch[i]
		}
	}

	if last != nil {
		ctx := context.Background()
		if last.remove {
			p.adapter.Remove(ctx, StorageName)
			p.removes.Inc()
			p.products.Set(0)
		} else {
			p.write(ctx, last.snapshot)
		}
	}

	for _, op := range batch {
		if op.barrier != nil {
			close(op.barrier)
		}
	}
}

func (p *Persister) write(ctx context.Context, snapshot []Product) {
	if snapshot == nil {
		snapshot = []Product{}
	}

	data, err := json.Marshal(envelope{Products: snapshot})
	if err != nil {
		p.log.Error("marshal envelope failed",
			zap.String("name", StorageName),
			zap.Error(err),
		)
		return
	}

	p.adapter.Write(ctx, StorageName, data)
	p.writes.Inc()
	p.products.Set(float64(len(snapshot)))
}

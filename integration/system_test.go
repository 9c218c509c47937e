package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ProductVault/internal/catalog"
	"ProductVault/internal/config"
	"ProductVault/internal/kvstore"
	"ProductVault/internal/upload"
	"ProductVault/pkg/kit"
)

type system struct {
	ts        *httptest.Server
	persister *catalog.Persister
}

// startSystem assembles the service the way cmd/catalog does: env
// config, file driver, adapter, persister, hydrated store, full
// handler stack with metrics, upload and rate limiting.
func startSystem(t *testing.T) *system {
	t.Helper()

	cfg := config.Load()

	store, err := kvstore.NewFileStore(cfg.DataDir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	registry := prometheus.NewRegistry()
	adapter := kvstore.NewAdapter(store, catalog.EmptyEnvelope, zap.NewNop())
	persister := catalog.NewPersister(adapter, registry, zap.NewNop())
	cat := catalog.NewStore(persister, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cat.Hydrate(ctx)
	cancel()

	s := &catalog.Server{Store: cat, Log: zap.NewNop()}
	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:      zap.NewNop(),
		Service:  "catalog",
		Registry: registry,

		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,

		Upload:        &upload.Handler{Log: zap.NewNop()},
		UploadLimiter: kit.NewIPRateLimiter(cfg.UploadRateLimit, cfg.UploadRateWindow),
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	return &system{ts: ts, persister: persister}
}

// stop shuts the system down the way main does: drain pending writes,
// then close the writer and the server.
func (sys *system) stop(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sys.persister.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
	sys.persister.Close()
	sys.ts.Close()
}

func TestSystemLifecycleSurvivesRestart(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("METRICS_TOKEN", "integration-token")

	sys := startSystem(t)

	var created map[string]any
	doJSON(t, http.MethodPost, sys.ts.URL+"/products", map[string]any{
		"name":        "Ball",
		"description": "d",
		"category":    "Sports",
		"price":       20,
		"image":       "x.jpg",
	}, &created, http.StatusCreated)

	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("product id missing: %#v", created)
	}

	doJSON(t, http.MethodPatch, sys.ts.URL+"/products/"+id, map[string]any{
		"price": "30",
	}, nil, http.StatusOK)

	doJSON(t, http.MethodGet, sys.ts.URL+"/readyz", nil, nil, http.StatusOK)

	req, err := http.NewRequest(http.MethodGet, sys.ts.URL+"/metrics", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer integration-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: status %d", resp.StatusCode)
	}

	// Restart over the same data dir; the catalog must rehydrate.
	sys.stop(t)
	sys = startSystem(t)

	var products []map[string]any
	doJSON(t, http.MethodGet, sys.ts.URL+"/products", nil, &products, http.StatusOK)
	if len(products) != 1 {
		t.Fatalf("rehydrated %d products, want 1", len(products))
	}
	if got, _ := products[0]["id"].(string); got != id {
		t.Fatalf("rehydrated id = %q, want %q", got, id)
	}
	if price, _ := products[0]["price"].(float64); price != 30 {
		t.Fatalf("rehydrated price = %v, want 30", price)
	}

	// Clear destroys durable state as well.
	doJSON(t, http.MethodDelete, sys.ts.URL+"/products", nil, nil, http.StatusNoContent)

	sys.stop(t)
	sys = startSystem(t)

	products = nil
	doJSON(t, http.MethodGet, sys.ts.URL+"/products", nil, &products, http.StatusOK)
	if len(products) != 0 {
		t.Fatalf("catalog not empty after clear and restart: %#v", products)
	}
}

func doJSON(t *testing.T, method, url string, body, out any, want int) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d, want %d, body %s", method, url, resp.StatusCode, want, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
	}
}

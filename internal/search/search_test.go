package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

type fakeES struct {
	mu       sync.Mutex
	indexed  map[string]models.Product
	lastBody map[string]any
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/products/_doc/"):
		var p models.Product
		_ = json.NewDecoder(r.Body).Decode(&p)
		f.indexed[strings.TrimPrefix(r.URL.Path, "/products/_doc/")] = p
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case r.URL.Path == "/products/_search":
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		hits := make([]map[string]any, 0, len(f.indexed))
		for _, p := range f.indexed {
			hits = append(hits, map[string]any{"_source": p})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": len(hits)}, "hits": hits},
		})
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"not found"}`)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeES) {
	t.Helper()
	fake := &fakeES{indexed: map[string]models.Product{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "", "", "products")
	require.NoError(t, err)
	return c, fake
}

func TestClient_IndexAndSearch(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	p := models.Product{ID: uuid.New(), Name: "Flat White", Description: "double shot", Price: 250, Category: "coffee", Available: true}
	require.NoError(t, c.IndexProduct(ctx, p))
	assert.Contains(t, fake.indexed, p.ID.String())

	total, items, err := c.SearchProducts(ctx, "flat whte", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ID)

	mm := fake.lastBody["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "flat whte", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
}

func TestClient_SearchError(t *testing.T) {
	fake := &fakeES{indexed: map[string]models.Product{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "", "", "missing")
	require.NoError(t, err)

	_, _, err = c.SearchProducts(context.Background(), "latte", 0, 10)
	require.Error(t, err)
}

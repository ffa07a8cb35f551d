package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// echoServer embeds each input as [len(input)] and records batch sizes.
func echoServer(t *testing.T) (*httptest.Server, *[]int) {
	t.Helper()
	var mu sync.Mutex
	var batches []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Truncate)

		mu.Lock()
		batches = append(batches, len(req.Input))
		mu.Unlock()

		vecs := make([][]float64, len(req.Input))
		for i, in := range req.Input {
			vecs[i] = []float64{float64(len(in))}
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: vecs})
	}))
	t.Cleanup(srv.Close)
	return srv, &batches
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		dims int
	}{
		{"default model", Config{}, 768},
		{"known model", Config{Model: "mxbai-embed-large"}, 1024},
		{"explicit width", Config{Model: "custom", Dimensions: 12}, 12},
		{"unknown model", Config{Model: "unknown"}, DefaultDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dims, NewEmbeddingService(tt.cfg).Dimensions())
		})
	}

	svc := NewEmbeddingService(Config{BaseURL: "http://ollama:11434//"})
	assert.Equal(t, "http://ollama:11434", svc.baseURL)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBatchSize, svc.batchSize)
	assert.NoError(t, svc.Close())
}

func TestEmbedBatch_KeepsOrderAcrossBatches(t *testing.T) {
	srv, batches := echoServer(t)
	svc := NewEmbeddingService(Config{BaseURL: srv.URL, BatchSize: 2})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := svc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vecs, len(texts))
	for i, text := range texts {
		assert.Equal(t, []float32{float32(len(text))}, vecs[i])
	}
	assert.Equal(t, []int{2, 2, 1}, *batches)
}

func TestEmbedBatch_Empty(t *testing.T) {
	vecs, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"}).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbed_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"count mismatch", http.StatusOK, `{"embeddings":[]}`, "0 embeddings for 1"},
		{"error field", http.StatusOK, `{"error":"out of memory"}`, "out of memory"},
		{"missing model", http.StatusNotFound, `{"error":"model not found"}`, "returned 404"},
		{"garbage", http.StatusOK, `not json`, "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewEmbeddingService(Config{BaseURL: srv.URL}).Embed(context.Background(), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	_, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"}).Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_StopsAtFirstFailedBatch(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	}))
	defer srv.Close()

	svc := NewEmbeddingService(Config{BaseURL: srv.URL, BatchSize: 1})
	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPing(t *testing.T) {
	tags := func(names ...string) string {
		models := make([]string, len(names))
		for i, n := range names {
			models[i] = fmt.Sprintf(`{"name":%q}`, n)
		}
		return `{"models":[` + strings.Join(models, ",") + `]}`
	}

	tests := []struct {
		name   string
		model  string
		listed string
		ok     bool
	}{
		{"latest tag", "nomic-embed-text", tags("llama3:8b", "nomic-embed-text:latest"), true},
		{"exact tag", "all-minilm:l6-v2", tags("all-minilm:l6-v2"), true},
		{"other tag", "all-minilm:l12", tags("all-minilm:l6-v2"), false},
		{"not pulled", "nomic-embed-text", tags("llama3:8b"), false},
		{"nothing pulled", "nomic-embed-text", tags(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/tags", r.URL.Path)
				_, _ = w.Write([]byte(tt.listed))
			}))
			defer srv.Close()

			err := NewEmbeddingService(Config{BaseURL: srv.URL, Model: tt.model}).Ping(context.Background())
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
			assert.Contains(t, err.Error(), "ollama pull "+tt.model)
		})
	}
}

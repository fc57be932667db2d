package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synindex/internal/core/domain"
)

func newTestServer(t *testing.T, dims int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Prompt == "boom" {
			http.Error(w, "model crashed", http.StatusInternalServerError)
			return
		}
		vec := make([]float64, dims)
		for i := range vec {
			vec[i] = float64(len(req.Prompt) + i)
		}
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"all-minilm:latest"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, "all-minilm", s.ModelName())
	assert.Equal(t, 384, s.Dimensions())
	assert.Equal(t, DefaultTimeout, s.client.Timeout)
}

func TestEmbed(t *testing.T) {
	srv := newTestServer(t, 4)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 4})

	vec, err := s.Embed(context.Background(), "leaf log")

	require.NoError(t, err)
	assert.Equal(t, []float32{8, 9, 10, 11}, vec)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := newTestServer(t, 4)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 4})

	_, err := s.Embed(context.Background(), "boom")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "model crashed")
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	srv := newTestServer(t, 3)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 4})

	_, err := s.Embed(context.Background(), "leaf log")

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedBatch(t *testing.T) {
	srv := newTestServer(t, 2)
	s := NewEmbeddingService(Config{BaseURL: srv.URL, Dimensions: 2})

	vecs, err := s.EmbedBatch(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {2, 3}}, vecs)

	_, err = s.EmbedBatch(context.Background(), []string{"a", "boom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed text 1")
}

func TestPing(t *testing.T) {
	srv := newTestServer(t, 4)

	ok := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, ok.Ping(context.Background()))

	missing := NewEmbeddingService(Config{BaseURL: srv.URL, Model: "nomic-embed-text"})
	err := missing.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull nomic-embed-text")
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	s := NewEmbeddingService(Config{BaseURL: srv.URL})

	err := s.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping failed")
}

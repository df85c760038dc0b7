package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eokafor/go-pharmacy-backend/internal/config"
)

func embeddingServer(t *testing.T, vec []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] == "" {
			t.Error("model missing from request")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req["model"],
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
		})
	}))
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(config.EmbeddingConfig{Model: "m", Dimensions: 3})
	if err == nil {
		t.Fatal("empty API key accepted")
	}
}

func TestEmbed_ReturnsVector(t *testing.T) {
	srv := embeddingServer(t, []float32{0.1, 0.2, 0.3})
	defer srv.Close()

	p, err := NewOpenAIProvider(config.EmbeddingConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "text-embedding-3-small",
		Dimensions: 3,
	})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}

	vec, err := p.Embed(context.Background(), "paracetamol")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("vec = %v", vec)
	}
}

func TestEmbed_RejectsDimensionMismatch(t *testing.T) {
	srv := embeddingServer(t, []float32{0.1, 0.2})
	defer srv.Close()

	p, err := NewOpenAIProvider(config.EmbeddingConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "text-embedding-3-small",
		Dimensions: 384,
	})
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	if _, err := p.Embed(context.Background(), "q"); err == nil {
		t.Fatal("dimension mismatch accepted")
	}
}

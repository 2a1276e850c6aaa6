package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-tracker/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaTestClient(t *testing.T, handler http.HandlerFunc) *OllamaClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewOllamaClient(config.LLMConfig{
		OllamaHost:        server.URL + "/",
		OllamaModel:       "qwen2.5:7b",
		OllamaVisionModel: "qwen2.5-vl:7b",
		Temperature:       0.1,
	}, server.Client())
}

func TestOllamaClient_GenerateJSON(t *testing.T) {
	client := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5:7b", req.Model)
		assert.Equal(t, "json", req.Format)
		assert.False(t, req.Stream)
		assert.Empty(t, req.Images)
		assert.Equal(t, 0.1, req.Options["temperature"])

		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: `{"category": "Food"}`, Done: true})
	})

	answer, err := client.GenerateJSON(context.Background(), "categorize")
	require.NoError(t, err)
	assert.JSONEq(t, `{"category": "Food"}`, answer)
}

func TestOllamaClient_ExtractFromImage(t *testing.T) {
	client := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "qwen2.5-vl:7b", req.Model)
		assert.Equal(t, []string{"cG5n"}, req.Images)

		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: `{"merchant": "REWE"}`})
	})

	answer, err := client.ExtractFromImage(context.Background(), "read", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Contains(t, answer, "REWE")
	assert.Equal(t, "qwen2.5-vl:7b", client.VisionModel())
}

func TestOllamaClient_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		client := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ollamaResponse{Error: "model not found"})
		})
		_, err := client.GenerateJSON(context.Background(), "x")
		assert.ErrorContains(t, err, "model not found")
	})

	t.Run("empty answer", func(t *testing.T) {
		client := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(ollamaResponse{Done: true})
		})
		_, err := client.GenerateJSON(context.Background(), "x")
		assert.ErrorIs(t, err, ErrLLMEmptyResponse)
	})

	t.Run("not json", func(t *testing.T) {
		client := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})
		_, err := client.GenerateJSON(context.Background(), "x")
		assert.Error(t, err)
	})
}

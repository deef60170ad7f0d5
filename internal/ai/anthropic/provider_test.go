package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futureproof/aitracker/internal/ai/anthropic"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4-20250514", req["model"])

		w.Write([]byte(`{"content":[{"type":"text","text":"Consider Asana."}]}`))
	}))
	defer server.Close()

	p := anthropic.NewProvider(config.ProviderConfig{APIKey: "sk-ant", Model: "claude-sonnet-4-20250514", BaseURL: server.URL, MaxTokens: 2048}, nil)
	text, err := p.Query(context.Background(), "project tools?")
	require.NoError(t, err)
	assert.Equal(t, "Consider Asana.", text)
}

func TestQuery_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	p := anthropic.NewProvider(config.ProviderConfig{APIKey: "k", BaseURL: server.URL}, nil)
	_, err := p.Query(context.Background(), "q")

	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ProviderErrMalformed, pe.Kind)
	assert.Equal(t, models.PlatformClaude, pe.Platform)
}

package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futureproof/aitracker/internal/ai/gemini"
	"github.com/futureproof/aitracker/internal/ai/llmhttp"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "gm-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		contents := req["contents"].([]any)
		parts := contents[0].(map[string]any)["parts"].([]any)
		assert.Equal(t, "survey tools?", parts[0].(map[string]any)["text"])

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Typeform and Qualtrics."}]}}]}`))
	}))
	defer server.Close()

	p := gemini.NewProvider(config.ProviderConfig{APIKey: "gm-key", Model: "gemini-2.0-flash", BaseURL: server.URL}, nil)
	text, err := p.Query(context.Background(), "survey tools?")
	require.NoError(t, err)
	assert.Equal(t, "Typeform and Qualtrics.", text)
	assert.Equal(t, models.PlatformGemini, p.Platform())
}

func TestQuery_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	p := gemini.NewProvider(config.ProviderConfig{APIKey: "k", Model: "gemini-2.0-flash", BaseURL: server.URL}, nil)
	_, err := p.Query(context.Background(), "q")

	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ProviderErrMalformed, pe.Kind)
}

func TestQuery_TransportErrorDoesNotLeakKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	client := llmhttp.New(models.PlatformGemini, time.Second)
	p := gemini.NewProvider(config.ProviderConfig{APIKey: "SECRET-KEY-123", Model: "gemini-2.0-flash", BaseURL: base}, client)
	_, err := p.Query(context.Background(), "q")
	require.Error(t, err)

	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.ProviderErrNetwork, pe.Kind)
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
	assert.NotContains(t, pe.Message, "SECRET-KEY-123")

	raw, jerr := json.Marshal(pe)
	require.NoError(t, jerr)
	assert.NotContains(t, string(raw), "SECRET-KEY-123")
}

package llmhttp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/futureproof/aitracker/internal/ai/llmhttp"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asProviderError(t *testing.T, err error) *models.ProviderError {
	t.Helper()
	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe), "expected *models.ProviderError, got %T", err)
	return pe
}

func TestPostJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := llmhttp.New(models.PlatformChatGPT, time.Second)
	body, err := c.PostJSON(context.Background(), server.URL, map[string]string{"X-Key": "secret"}, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestPostJSON_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer server.Close()

	c := llmhttp.New(models.PlatformGemini, time.Second)
	_, err := c.PostJSON(context.Background(), server.URL, nil, struct{}{})
	require.Error(t, err)

	pe := asProviderError(t, err)
	assert.Equal(t, models.PlatformGemini, pe.Platform)
	assert.Equal(t, models.ProviderErrStatus, pe.Kind)
	assert.Equal(t, http.StatusTooManyRequests, pe.Status)
	assert.Contains(t, pe.Message, "rate limited")
	assert.ErrorIs(t, err, llmhttp.ErrUnavailable)
}

func TestPostJSON_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := llmhttp.New(models.PlatformClaude, time.Second)
	_, err := c.PostJSON(context.Background(), url, nil, struct{}{})

	pe := asProviderError(t, err)
	assert.Equal(t, models.ProviderErrNetwork, pe.Kind)
	assert.Zero(t, pe.Status)
	assert.ErrorIs(t, err, llmhttp.ErrUnavailable)
}

func TestPostJSON_UnreachableRedactsQueryAndUserinfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := strings.Replace(server.URL, "http://", "http://user:hunter2@", 1)
	server.Close()

	c := llmhttp.New(models.PlatformGemini, time.Second)
	_, err := c.PostJSON(context.Background(), base+"/v1/generate?key=SECRET-KEY-123", nil, struct{}{})

	pe := asProviderError(t, err)
	assert.Equal(t, models.ProviderErrNetwork, pe.Kind)
	assert.Contains(t, pe.Message, "/v1/generate")
	assert.NotContains(t, pe.Message, "SECRET-KEY-123")
	assert.NotContains(t, pe.Message, "hunter2")
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestPostJSON_Non2xxBodyTruncatedOnRuneBoundary(t *testing.T) {
	// 511 ASCII bytes followed by a 3-byte rune straddles the 512-byte cap.
	body := strings.Repeat("a", 511) + "€" + strings.Repeat("b", 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(body))
	}))
	defer server.Close()

	c := llmhttp.New(models.PlatformChatGPT, time.Second)
	_, err := c.PostJSON(context.Background(), server.URL, nil, struct{}{})

	pe := asProviderError(t, err)
	assert.True(t, utf8.ValidString(pe.Message))
	assert.Equal(t, strings.Repeat("a", 511), pe.Message)
}

func TestPostJSON_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := llmhttp.New(models.PlatformPerplexity, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.PostJSON(ctx, server.URL, nil, struct{}{})
	pe := asProviderError(t, err)
	assert.Equal(t, models.ProviderErrTimeout, pe.Kind)
	assert.ErrorIs(t, err, llmhttp.ErrTimeout)
}

func TestExtractText(t *testing.T) {
	c := llmhttp.New(models.PlatformChatGPT, 0)

	text, err := c.ExtractText([]byte(`{"choices":[{"message":{"content":"  raw answer\n"}}]}`), "choices.0.message.content")
	require.NoError(t, err)
	assert.Equal(t, "  raw answer\n", text, "answer must be returned unmodified")
}

func TestExtractText_Malformed(t *testing.T) {
	c := llmhttp.New(models.PlatformChatGPT, 0)

	cases := map[string]string{
		"not json":     `<html>oops</html>`,
		"missing path": `{"choices":[]}`,
		"non-string":   `{"choices":[{"message":{"content":42}}]}`,
		"null content": `{"choices":[{"message":{"content":null}}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.ExtractText([]byte(body), "choices.0.message.content")
			pe := asProviderError(t, err)
			assert.Equal(t, models.ProviderErrMalformed, pe.Kind)
			assert.ErrorIs(t, err, llmhttp.ErrInvalidResponse)
		})
	}
}

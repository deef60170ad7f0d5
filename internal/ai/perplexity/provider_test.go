package perplexity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futureproof/aitracker/internal/ai/perplexity"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer pplx", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"Notion [1]"}}]}`))
	}))
	defer server.Close()

	p := perplexity.NewProvider(config.ProviderConfig{APIKey: "pplx", Model: "sonar", BaseURL: server.URL + "/"}, nil)
	text, err := p.Query(context.Background(), "note apps?")
	require.NoError(t, err)
	assert.Equal(t, "Notion [1]", text)
}

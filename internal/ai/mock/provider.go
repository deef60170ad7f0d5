package mock

import (
	"context"
	"sync"

	"github.com/futureproof/aitracker/internal/ai"
	"github.com/futureproof/aitracker/pkg/models"
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Platform_ models.Platform
	Name_     string
	QueryFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockProvider) Platform() models.Platform { return m.Platform_ }

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Query(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, prompt)
	}
	return "", nil
}

// Prompts returns every prompt received so far, in call order.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// NewMockProvider returns a MockProvider that always answers with text.
func NewMockProvider(p models.Platform, text string) *MockProvider {
	return &MockProvider{
		Platform_: p,
		Name_:     "mock-" + string(p),
		QueryFunc: func(_ context.Context, _ string) (string, error) {
			return text, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always fails with the given
// HTTP status.
func NewFailingProvider(p models.Platform, status int) *MockProvider {
	return &MockProvider{
		Platform_: p,
		Name_:     "mock-failing",
		QueryFunc: func(_ context.Context, _ string) (string, error) {
			return "", &models.ProviderError{
				Platform: p,
				Kind:     models.ProviderErrStatus,
				Status:   status,
				Message:  "simulated failure",
				Err:      ai.ErrProviderUnavailable,
			}
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider(p models.Platform) *MockProvider {
	return &MockProvider{
		Platform_: p,
		Name_:     "mock-timeout",
		QueryFunc: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", &models.ProviderError{
				Platform: p,
				Kind:     models.ProviderErrTimeout,
				Message:  ctx.Err().Error(),
				Err:      ai.ErrInferenceTimeout,
			}
		},
	}
}

// NewSet returns one answering MockProvider per platform, in platform order.
func NewSet(text string) []models.AIProvider {
	out := make([]models.AIProvider, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		out = append(out, NewMockProvider(p, text))
	}
	return out
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)

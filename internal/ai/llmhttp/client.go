// Package llmhttp holds the request plumbing shared by the assistant adapters:
// one JSON POST per call and classification of every failure into a
// *models.ProviderError.
package llmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/futureproof/aitracker/pkg/models"
	"github.com/tidwall/gjson"
)

// Sentinel errors wrapped by every ProviderError, re-exported by package ai.
var (
	ErrUnavailable     = errors.New("ai provider unavailable")
	ErrTimeout         = errors.New("ai inference timeout")
	ErrInvalidResponse = errors.New("ai provider returned invalid response")
	ErrMisconfigured   = errors.New("ai provider misconfigured")
)

// maxErrorBody bounds how much of a failed response is kept in the message.
const maxErrorBody = 512

// Client posts JSON to a backend on behalf of one platform.
type Client struct {
	platform models.Platform
	http     *http.Client
}

// New returns a Client. A zero timeout leaves deadlines to the caller's context.
func New(platform models.Platform, timeout time.Duration) *Client {
	return &Client{platform: platform, http: &http.Client{Timeout: timeout}}
}

// WithHTTPClient swaps the underlying transport; used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// PostJSON marshals body, sends it to endpoint with the given headers and returns
// the raw response body of a 2xx reply.
func (c *Client) PostJSON(ctx context.Context, endpoint string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, c.fail(models.ProviderErrMisconfigured, 0, fmt.Sprintf("encoding request: %v", err), ErrMisconfigured)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fail(models.ProviderErrMisconfigured, 0, fmt.Sprintf("building request: %v", err), ErrMisconfigured)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(models.ProviderErrStatus, resp.StatusCode, truncate(string(raw), maxErrorBody), ErrUnavailable)
	}

	return raw, nil
}

// ExtractText pulls the answer text at a gjson path out of a response body.
// Missing, empty or non-string values are malformed responses.
func (c *Client) ExtractText(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", c.fail(models.ProviderErrMalformed, 0, "response body is not valid JSON", ErrInvalidResponse)
	}
	v := gjson.GetBytes(body, path)
	if !v.Exists() || v.Type != gjson.String {
		return "", c.fail(models.ProviderErrMalformed, 0, fmt.Sprintf("response has no text at %s", path), ErrInvalidResponse)
	}
	return v.String(), nil
}

// Misconfigured reports a missing credential without doing any I/O.
func (c *Client) Misconfigured(msg string) error {
	return c.fail(models.ProviderErrMisconfigured, 0, msg, ErrMisconfigured)
}

func (c *Client) fail(kind models.ProviderErrorKind, status int, msg string, sentinel error) *models.ProviderError {
	return &models.ProviderError{
		Platform: c.platform,
		Kind:     kind,
		Status:   status,
		Message:  msg,
		Err:      sentinel,
	}
}

// classify maps transport-level errors to timeout or network failures.
func (c *Client) classify(err error) error {
	msg := redact(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return c.fail(models.ProviderErrTimeout, 0, msg, ErrTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.fail(models.ProviderErrTimeout, 0, msg, ErrTimeout)
	}
	return c.fail(models.ProviderErrNetwork, 0, msg, ErrUnavailable)
}

// redact renders err with the query string, fragment and userinfo removed
// from any request URL it carries. Messages are logged and persisted.
func redact(err error) string {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err.Error()
	}
	clean := *ue
	if u, perr := url.Parse(ue.URL); perr == nil {
		u.User = nil
		u.RawQuery = ""
		u.ForceQuery = false
		u.Fragment = ""
		clean.URL = u.String()
	} else {
		clean.URL = "[redacted]"
	}
	return clean.Error()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

const (
	// DefaultTimeout bounds one direct HTTP request.
	DefaultTimeout = 30 * time.Second

	// MaxAttempts caps retries per URL on transient failures.
	MaxAttempts = 3

	// RetryDelay is the initial backoff delay; it doubles per attempt.
	RetryDelay = time.Second

	// DirectRate throttles the direct path (requests per second).
	DirectRate = 4.0

	userAgent = "issuearc/1.0"
)

// DirectClient fetches assets from the content-delivery origin with a
// plain authenticated GET, retrying transient failures with bounded
// exponential backoff.
type DirectClient struct {
	http       *http.Client
	limiter    *rate.Limiter
	attempts   int
	retryDelay time.Duration
}

var _ Getter = (*DirectClient)(nil)

// NewDirectClient wraps an HTTP client with retry and rate policy.
func NewDirectClient(httpClient *http.Client) *DirectClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &DirectClient{
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(DirectRate), 1),
		attempts:   MaxAttempts,
		retryDelay: RetryDelay,
	}
}

// NewTokenClient builds the HTTP client for the direct path. With a
// token it authenticates via oauth2; without one it is anonymous.
func NewTokenClient(ctx context.Context, token string) *http.Client {
	if token == "" {
		return &http.Client{Timeout: DefaultTimeout}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(ctx, ts)
	client.Timeout = DefaultTimeout
	return client
}

// TokenFromEnv returns the GitHub token from GH_TOKEN or GITHUB_TOKEN,
// or empty when neither is set.
func TokenFromEnv() string {
	for _, key := range []string{"GH_TOKEN", "GITHUB_TOKEN"} {
		if token := strings.TrimSpace(os.Getenv(key)); token != "" {
			return token
		}
	}
	return ""
}

// Get downloads url, retrying transient failures up to the attempt cap.
func (c *DirectClient) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := c.get(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !domain.IsTransientFetch(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *DirectClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		// Network-level failures are worth retrying.
		return nil, &domain.FetchError{URL: url, Transient: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &domain.FetchError{
			URL:       url,
			Status:    resp.StatusCode,
			Transient: isTransientStatus(resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Transient: true, Err: err}
	}
	if len(data) == 0 {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("empty response body")}
	}
	return data, nil
}

// isTransientStatus treats rate limiting and server errors as
// retryable; other client errors are permanent.
func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// backoff sleeps for the attempt's exponential delay, honoring
// cancellation.
func (c *DirectClient) backoff(ctx context.Context, attempt int) error {
	delay := c.retryDelay * (1 << (attempt - 1))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

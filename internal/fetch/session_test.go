package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

// testSession builds a session whose browser request is stubbed out.
func testSession(fetch func(string) ([]byte, error)) *BrowserSession {
	return &BrowserSession{
		limiter: rate.NewLimiter(rate.Inf, 1),
		fetch:   fetch,
	}
}

func TestSessionGet_RetriesTransientFailures(t *testing.T) {
	calls := 0
	s := testSession(func(url string) ([]byte, error) {
		calls++
		if calls < 3 {
			return nil, &domain.FetchError{URL: url, Transient: true, Err: errors.New("timeout")}
		}
		return []byte("bytes"), nil
	})

	data, err := s.Get(context.Background(), "https://cdn.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
	assert.Equal(t, 3, calls)
}

func TestSessionGet_PermanentFailureNotRetried(t *testing.T) {
	calls := 0
	s := testSession(func(url string) ([]byte, error) {
		calls++
		return nil, &domain.FetchError{URL: url, Status: 404}
	})

	_, err := s.Get(context.Background(), "https://cdn.example/a.png")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSessionGet_TransientFailureExhaustsAttempts(t *testing.T) {
	calls := 0
	s := testSession(func(url string) ([]byte, error) {
		calls++
		return nil, &domain.FetchError{URL: url, Transient: true, Err: errors.New("timeout")}
	})

	_, err := s.Get(context.Background(), "https://cdn.example/a.png")
	assert.True(t, domain.IsTransientFetch(err))
	assert.Equal(t, MaxAttempts, calls)
}

func TestSessionGet_TriesDownloadHintPerAttempt(t *testing.T) {
	var urls []string
	s := testSession(func(url string) ([]byte, error) {
		urls = append(urls, url)
		return nil, &domain.FetchError{URL: url, Status: 404}
	})

	_, err := s.Get(context.Background(), "https://github.com/user-attachments/assets/abc")
	require.Error(t, err)
	assert.Equal(t, []string{
		"https://github.com/user-attachments/assets/abc",
		"https://github.com/user-attachments/assets/abc?download=1",
	}, urls)
}

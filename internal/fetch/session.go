package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

const (
	// SessionRate throttles the session-gated path well below the direct
	// path; the shared session trips abuse detection easily.
	SessionRate = 0.5

	// sessionTimeoutMS bounds one in-page request (playwright uses
	// milliseconds). A hung fetch becomes a transient failure.
	sessionTimeoutMS = 30_000
)

// BrowserSession resolves session-gated URLs through a persistent
// browser profile. The profile is created once (the user logs in
// interactively) and reused across runs. The session is a single
// stateful resource: requests are strictly serialized.
type BrowserSession struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.BrowserContext
	limiter *rate.Limiter
	fetch   func(rawURL string) ([]byte, error)
}

var _ Getter = (*BrowserSession)(nil)

// OpenSession launches a persistent browser context rooted at
// profileDir. A missing browser runtime yields ErrSessionUnavailable,
// which aborts the session-gated path only.
func OpenSession(profileDir string, headless bool) (*BrowserSession, error) {
	if err := os.MkdirAll(profileDir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create profile dir: %v", domain.ErrSessionUnavailable, err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionUnavailable, err)
	}

	browser, err := pw.Chromium.LaunchPersistentContext(profileDir,
		playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: playwright.Bool(headless),
		})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("%w: launch browser: %v", domain.ErrSessionUnavailable, err)
	}

	s := &BrowserSession{
		pw:      pw,
		browser: browser,
		limiter: rate.NewLimiter(rate.Limit(SessionRate), 1),
	}
	s.fetch = s.request
	return s, nil
}

// InteractiveLogin opens the host site in a visible page and waits for
// the user to confirm they are logged in. Run once to seed the
// persistent profile.
func (s *BrowserSession) InteractiveLogin(in io.Reader, out io.Writer) error {
	page, err := s.browser.NewPage()
	if err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto("https://github.com"); err != nil {
		return fmt.Errorf("navigate to github.com: %w", err)
	}
	fmt.Fprintln(out, "If not logged in, log in now in the opened browser.")
	fmt.Fprint(out, "Press Enter to continue...")
	bufio.NewReader(in).ReadString('\n')
	return nil
}

// Get downloads one session-gated URL through the browser context,
// retrying transient failures up to the attempt cap. The rate limiter
// spaces attempts, so no separate backoff delay is needed.
func (s *BrowserSession) Get(ctx context.Context, rawURL string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		data, err := s.getOnce(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !domain.IsTransientFetch(err) {
			break
		}
	}
	return nil, lastErr
}

// getOnce makes one pass over the candidate URL variants.
func (s *BrowserSession) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for _, candidate := range candidateURLs(rawURL) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.fetch(candidate)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *BrowserSession) request(rawURL string) ([]byte, error) {
	resp, err := s.browser.Request().Get(rawURL, playwright.APIRequestContextGetOptions{
		Timeout: playwright.Float(sessionTimeoutMS),
	})
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Transient: true, Err: err}
	}
	if !resp.Ok() {
		return nil, &domain.FetchError{URL: rawURL, Status: resp.Status()}
	}
	data, err := resp.Body()
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Transient: true, Err: err}
	}
	if len(data) == 0 {
		return nil, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("empty response body")}
	}
	return data, nil
}

// Close releases the browser context and the driver. Safe to call once
// on every exit path.
func (s *BrowserSession) Close() error {
	var firstErr error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// candidateURLs returns the URL variants to try. User-attachment URLs
// sometimes need an explicit download hint to return raw bytes instead
// of an HTML wrapper.
func candidateURLs(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil {
		return []string{raw}
	}
	if u.Hostname() != "github.com" || u.Query().Has("download") {
		return []string{raw}
	}
	hinted := raw + "?download=1"
	if u.RawQuery != "" {
		hinted = raw + "&download=1"
	}
	return []string{raw, hinted}
}

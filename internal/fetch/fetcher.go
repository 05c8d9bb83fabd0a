// Package fetch resolves discovered asset references to bytes on disk.
// Two download paths exist: a direct HTTP path for the content-delivery
// origin and a browser-session path for the session-gated origin.
// Partial failure is expected; every reference that cannot be resolved
// is recorded in the missing-attachments journal and the rendered
// document keeps its (now dangling) relative link.
package fetch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
	"github.com/custodia-labs/issuearc-cli/internal/extfix"
	"github.com/custodia-labs/issuearc-cli/internal/fsutil"
	"github.com/custodia-labs/issuearc-cli/internal/journal"
	"github.com/custodia-labs/issuearc-cli/internal/logger"
)

// Getter resolves one URL to its bytes.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Stats summarizes one fetch run.
type Stats struct {
	Fetched int // downloaded this run
	Skipped int // already present on disk
	Missing int // journalled as unresolvable
}

// Fetcher drives the pending → fetched|missing state machine for one
// repository's references.
type Fetcher struct {
	repoDir string // export dir the references' local paths are relative to
	direct  Getter
	session Getter // nil when no browser session could be established
	sink    journal.Sink
	workers int

	mu    sync.Mutex
	stats Stats
}

// New creates a Fetcher. session may be nil; session-gated references
// are then journalled as missing without aborting the direct path.
func New(repoDir string, direct, session Getter, sink journal.Sink, workers int) *Fetcher {
	if workers < 1 {
		workers = 1
	}
	return &Fetcher{
		repoDir: repoDir,
		direct:  direct,
		session: session,
		sink:    sink,
		workers: workers,
	}
}

// FetchAll resolves every reference. Direct-origin references are
// downloaded by a bounded worker pool; session-gated references run
// strictly one at a time because the browser session is a single
// stateful resource.
func (f *Fetcher) FetchAll(ctx context.Context, refs []*domain.AssetReference) Stats {
	var direct, session []*domain.AssetReference
	for _, ref := range refs {
		if ref.Origin == domain.OriginSession {
			session = append(session, ref)
		} else {
			direct = append(direct, ref)
		}
	}

	f.fetchDirect(ctx, direct)
	for _, ref := range session {
		if ctx.Err() != nil {
			break
		}
		f.resolve(ctx, ref, f.session)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *Fetcher) fetchDirect(ctx context.Context, refs []*domain.AssetReference) {
	queue := make(chan *domain.AssetReference)
	var wg sync.WaitGroup

	for range f.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range queue {
				f.resolve(ctx, ref, f.direct)
			}
		}()
	}

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		queue <- ref
	}
	close(queue)
	wg.Wait()
}

// resolve moves one reference out of the pending state.
func (f *Fetcher) resolve(ctx context.Context, ref *domain.AssetReference, getter Getter) {
	target := filepath.Join(f.repoDir, filepath.FromSlash(ref.LocalPath))

	// Idempotence: a non-empty file at the target means a previous run
	// already resolved this reference. A ".img" placeholder may also be
	// satisfied by a sibling the extension normalizer renamed.
	if fsutil.ExistsNonEmpty(target) || normalizedSibling(target) != "" {
		ref.State = domain.AssetFetched
		f.count(func(s *Stats) { s.Skipped++ })
		return
	}

	if getter == nil {
		f.markMissing(ref, domain.ErrSessionUnavailable)
		return
	}

	data, err := getter.Get(ctx, ref.URL)
	if err != nil {
		f.markMissing(ref, err)
		return
	}
	if err := fsutil.WriteFileAtomic(target, data, 0o644); err != nil {
		f.markMissing(ref, err)
		return
	}

	ref.State = domain.AssetFetched
	f.count(func(s *Stats) { s.Fetched++ })
	logger.Debug("fetched %s -> %s", ref.URL, ref.LocalPath)
}

// markMissing journals a final failure. The document's link stays a
// local relative path; it is never reverted to the remote URL.
func (f *Fetcher) markMissing(ref *domain.AssetReference, cause error) {
	ref.State = domain.AssetMissing
	f.count(func(s *Stats) { s.Missing++ })
	logger.Warn("missing attachment %s (%s): %v", ref.URL, ref.Kind, cause)

	item := domain.Item{Repo: ref.Repo, Kind: ref.Kind, Number: ref.Number}
	rec := domain.MissingAttachmentRecord{
		Repo:       ref.Repo.String(),
		RepoSlug:   ref.Repo.Slug(),
		Kind:       string(ref.Kind),
		Number:     ref.Number,
		URL:        ref.URL,
		LocalPath:  ref.LocalPath,
		DocPath:    item.DocPath(),
		Reason:     cause.Error(),
		RecordedAt: time.Now().UTC(),
	}
	if err := f.sink.Append(rec); err != nil {
		logger.Warn("journal append failed for %s: %v", ref.URL, err)
	}
}

// normalizedSibling returns a non-empty sibling of a ".img" placeholder
// target under a corrected image extension, or "" when none exists.
func normalizedSibling(target string) string {
	if !strings.EqualFold(filepath.Ext(target), ".img") {
		return ""
	}
	stem := strings.TrimSuffix(target, filepath.Ext(target))
	for _, ext := range extfix.ImageExts {
		if fsutil.ExistsNonEmpty(stem + ext) {
			return stem + ext
		}
	}
	return ""
}

func (f *Fetcher) count(update func(*Stats)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update(&f.stats)
}

// IsSessionUnavailable reports whether err means no browser session
// context could be established.
func IsSessionUnavailable(err error) bool {
	return errors.Is(err, domain.ErrSessionUnavailable)
}

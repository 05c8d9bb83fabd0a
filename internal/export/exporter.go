// Package export orchestrates one repository's pipeline: raw capture →
// merged timelines → canonical documents → asset references. Rendering
// is pure and offline; it always runs to completion before any network
// fetch so the document set is deterministic and complete even if every
// download later fails.
package export

import (
	"context"
	"path/filepath"

	"github.com/custodia-labs/issuearc-cli/internal/assets"
	"github.com/custodia-labs/issuearc-cli/internal/config"
	"github.com/custodia-labs/issuearc-cli/internal/domain"
	"github.com/custodia-labs/issuearc-cli/internal/fsutil"
	"github.com/custodia-labs/issuearc-cli/internal/logger"
	"github.com/custodia-labs/issuearc-cli/internal/rawstore"
	"github.com/custodia-labs/issuearc-cli/internal/render"
)

// Exporter renders one repository's items.
type Exporter struct {
	cfg   config.Config
	repo  domain.Repo
	store *rawstore.Store
}

// New creates an Exporter for one repository.
func New(cfg config.Config, repo domain.Repo) *Exporter {
	return &Exporter{
		cfg:   cfg,
		repo:  repo,
		store: rawstore.New(cfg.RawRoot, repo),
	}
}

// Result reports the offline passes: rendered document counts and the
// asset references they name, in discovery order.
type Result struct {
	ItemsRendered int
	ItemsSkipped  int
	Refs          []*domain.AssetReference
}

// Render runs the offline pipeline for the repository: every item is
// merged, rendered, and written atomically under the export directory,
// with asset links already rewritten to their deterministic local
// paths. Errors local to one item skip that item and continue; only a
// malformed top-level capture aborts.
func (e *Exporter) Render(ctx context.Context) (*Result, error) {
	issues, pulls, err := e.store.ReadItems()
	if err != nil {
		return nil, err
	}

	issueNumbers := numberSet(issues)
	pullNumbers := numberSet(pulls)

	res := &Result{}
	total := len(issues) + len(pulls)
	done := 0
	lastPercent := -1

	progress := func() {
		done++
		if total == 0 {
			return
		}
		percent := done * 100 / total
		if percent/5 != lastPercent/5 {
			logger.Progress(e.repo.String(), done, total)
			lastPercent = percent
		}
	}

	for _, item := range issues {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		comments := e.store.IssueComments(item.Number)
		related := render.RelatedPulls(itemTexts(item, comments), pullNumbers, e.repo)
		e.renderItem(item, comments, related, res)
		progress()
	}

	for _, item := range pulls {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		comments := e.store.PullComments(item.Number)
		related := render.RelatedIssues(item.Body, issueNumbers, e.repo)
		e.renderItem(item, comments, related, res)
		progress()
	}

	return res, nil
}

// renderItem merges, rewrites, renders, and writes one item. Failures
// are contained: the item is skipped and siblings continue.
func (e *Exporter) renderItem(item *domain.Item, comments []domain.Comment, related []int, res *Result) {
	tl, err := domain.BuildTimeline(item, comments)
	if err != nil {
		logger.Warn("%s: %s: %v, skipping", e.repo, item.Ref(), err)
		res.ItemsSkipped++
		return
	}

	rw := assets.NewRewriter(e.repo, item.Kind, item.Number)
	for i := range tl.Entries {
		tl.Entries[i].Body = rw.Rewrite(tl.Entries[i].Body)
	}

	doc, err := render.Document(tl, related)
	if err != nil {
		logger.Warn("%s: %s: %v, skipping", e.repo, item.Ref(), err)
		res.ItemsSkipped++
		return
	}

	path := filepath.Join(e.cfg.RepoDir(e.repo.Slug()), filepath.FromSlash(item.DocPath()))
	if err := fsutil.WriteFileAtomic(path, []byte(doc), 0o644); err != nil {
		logger.Warn("%s: write %s: %v, skipping", e.repo, path, err)
		res.ItemsSkipped++
		return
	}

	res.ItemsRendered++
	res.Refs = append(res.Refs, rw.References()...)
}

// itemTexts collects the raw body and comment texts used for
// related-item detection, before any link rewriting.
func itemTexts(item *domain.Item, comments []domain.Comment) []string {
	texts := make([]string, 0, len(comments)+1)
	texts = append(texts, item.Body)
	for _, c := range comments {
		texts = append(texts, c.Body)
	}
	return texts
}

func numberSet(items []*domain.Item) map[int]bool {
	set := make(map[int]bool, len(items))
	for _, item := range items {
		set[item.Number] = true
	}
	return set
}

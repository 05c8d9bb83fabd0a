package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/issuearc-cli/internal/config"
	"github.com/custodia-labs/issuearc-cli/internal/domain"
	"github.com/custodia-labs/issuearc-cli/internal/export"
	"github.com/custodia-labs/issuearc-cli/internal/extfix"
	"github.com/custodia-labs/issuearc-cli/internal/fetch"
	"github.com/custodia-labs/issuearc-cli/internal/journal"
	"github.com/custodia-labs/issuearc-cli/internal/logger"
)

// phases selects which pipeline stages a command runs. Rendering always
// precedes fetching; fetching always precedes normalization.
type phases struct {
	fetch     bool
	normalize bool
	login     bool
}

// repoSummary aggregates one repository's counters for the end-of-run
// report.
type repoSummary struct {
	Repo          string
	ItemsRendered int
	ItemsSkipped  int
	Fetch         fetch.Stats
	ExtFix        extfix.Result
}

// runPipeline drives the selected phases for every configured
// repository. Rendering runs to completion before any network fetch,
// and a failed repository does not stop its siblings.
func runPipeline(cmd *cobra.Command, cfg config.Config, repos []domain.Repo, ph phases) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var session *fetch.BrowserSession
	defer func() {
		if session != nil {
			session.Close()
		}
	}()

	var direct fetch.Getter
	if ph.fetch {
		direct = fetch.NewDirectClient(fetch.NewTokenClient(ctx, fetch.TokenFromEnv()))
	}

	var summaries []repoSummary
	failures := 0

	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return err
		}

		sum := repoSummary{Repo: repo.String()}

		res, err := export.New(cfg, repo).Render(ctx)
		if err != nil {
			logger.Warn("%s: export aborted: %v", repo, err)
			failures++
			continue
		}
		sum.ItemsRendered = res.ItemsRendered
		sum.ItemsSkipped = res.ItemsSkipped

		if ph.fetch {
			sessionGetter := ensureSession(cmd, cfg, &session, ph.login, res.Refs)
			sink := journal.NewFile(cfg.JournalPath(repo.Slug()))
			fetcher := fetch.New(cfg.RepoDir(repo.Slug()), direct, sessionGetter, sink, cfg.FetchWorkers)
			sum.Fetch = fetcher.FetchAll(ctx, res.Refs)
		}

		if ph.normalize {
			fixes, err := extfix.Normalize(cfg.RepoDir(repo.Slug()))
			if err != nil {
				logger.Warn("%s: extension normalization: %v", repo, err)
			}
			sum.ExtFix = fixes
		}

		summaries = append(summaries, sum)
	}

	printSummaries(cmd.OutOrStdout(), summaries)
	if failures == len(repos) {
		return domain.ErrMalformedCapture
	}
	return nil
}

// ensureSession lazily opens the shared browser session the first time
// a session-gated reference appears. A session that cannot be
// established is reported once; its references are journalled as
// missing while the direct path proceeds.
func ensureSession(cmd *cobra.Command, cfg config.Config, session **fetch.BrowserSession, login bool, refs []*domain.AssetReference) fetch.Getter {
	if *session != nil {
		return *session
	}
	if !hasSessionRefs(refs) {
		return nil
	}

	s, err := fetch.OpenSession(cfg.ProfileDir, !login)
	if err != nil {
		logger.Warn("%v; session-gated attachments will be journalled as missing", err)
		return nil
	}
	if login {
		if err := s.InteractiveLogin(os.Stdin, cmd.OutOrStdout()); err != nil {
			logger.Warn("interactive login: %v", err)
		}
	}
	*session = s
	return s
}

func hasSessionRefs(refs []*domain.AssetReference) bool {
	for _, ref := range refs {
		if ref.Origin == domain.OriginSession {
			return true
		}
	}
	return false
}

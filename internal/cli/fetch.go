package cli

import (
	"github.com/spf13/cobra"
)

var flagLogin bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Resolve embedded attachments for an existing rendered tree",
	Long: `Enumerates the asset references of every configured repository
(re-running the offline render, which is idempotent) and downloads the
pending ones. Direct-origin assets use authenticated HTTP with bounded
retries; session-gated assets go through a persistent browser profile,
one request at a time. Assets already on disk are skipped; unresolved
references are appended to the missing-attachments journal.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&flagLogin, "login", false, "open a visible browser to log in before fetching")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repos, err := configuredRepos(cfg)
	if err != nil {
		return err
	}
	return runPipeline(cmd, cfg, repos, phases{fetch: true, login: flagLogin})
}

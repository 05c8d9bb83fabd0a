package cli

import (
	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Correct downloaded asset extensions and rewrite references",
	Long: `Post-download pass: sniffs each downloaded asset's content type and,
when the filename extension disagrees, renames the file and rewrites
every reference in the repository's documents. Idempotent; files whose
content is not a recognized image type are left for manual review.`,
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repos, err := configuredRepos(cfg)
	if err != nil {
		return err
	}
	return runPipeline(cmd, cfg, repos, phases{normalize: true})
}

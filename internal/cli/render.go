package cli

import (
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render documents from raw capture without touching the network",
	Long: `Runs the offline passes only: reads the raw capture, merges each
item's comment streams into one timeline, and writes canonical Markdown
with asset links already rewritten to their local paths. Re-running on
unchanged input produces byte-identical output.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repos, err := configuredRepos(cfg)
	if err != nil {
		return err
	}
	return runPipeline(cmd, cfg, repos, phases{})
}

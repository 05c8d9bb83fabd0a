// Package cli wires the issuearc commands. Commands register
// themselves on the root command in their init functions.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/issuearc-cli/internal/config"
	"github.com/custodia-labs/issuearc-cli/internal/domain"
	"github.com/custodia-labs/issuearc-cli/internal/logger"
)

var version = "dev"

var (
	flagConfig     string
	flagVerbose    bool
	flagRepos      []string
	flagRawRoot    string
	flagOutRoot    string
	flagProfileDir string
)

var rootCmd = &cobra.Command{
	Use:   "issuearc",
	Short: "Archive a repository's issues and pull requests as Markdown",
	Long: `issuearc turns raw GitHub API capture files into deterministic,
human-readable Markdown documents, resolving embedded images to local
files. Rendering is offline and re-runnable; attachment fetching is
best-effort, with unresolved references recorded in an append-only
missing-attachments journal.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.issuearc/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringArrayVar(&flagRepos, "repo", nil, "repository in OWNER/REPO form (repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagRawRoot, "raw-root", "", "root folder containing raw capture JSON")
	rootCmd.PersistentFlags().StringVar(&flagOutRoot, "out-root", "", "root folder for rendered output")
	rootCmd.PersistentFlags().StringVar(&flagProfileDir, "profile-dir", "", "browser profile dir for session-gated downloads")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the effective configuration: file values first,
// then flag overrides.
func loadConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if len(flagRepos) > 0 {
		cfg.Repos = flagRepos
	}
	if flagRawRoot != "" {
		cfg.RawRoot = flagRawRoot
	}
	if flagOutRoot != "" {
		cfg.OutRoot = flagOutRoot
	}
	if flagProfileDir != "" {
		cfg.ProfileDir = flagProfileDir
	}
	return cfg, nil
}

// configuredRepos parses the repository list, which is the one setting
// without a default.
func configuredRepos(cfg config.Config) ([]domain.Repo, error) {
	if len(cfg.Repos) == 0 {
		return nil, fmt.Errorf("no repositories configured: pass --repo OWNER/REPO or set repos in the config file")
	}
	repos := make([]domain.Repo, 0, len(cfg.Repos))
	for _, s := range cfg.Repos {
		repo, err := domain.ParseRepo(s)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

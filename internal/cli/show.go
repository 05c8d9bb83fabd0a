package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

var showCmd = &cobra.Command{
	Use:   "show OWNER/REPO REF",
	Short: "Display an exported document in the terminal",
	Long: `Renders a previously exported document for terminal reading. REF is
an item reference such as ISSUE-42 or PR-7. When colors are disabled
(NO_COLOR, or TERM=dumb) the raw Markdown is printed unmodified.`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := domain.ParseRepo(args[0])
	if err != nil {
		return err
	}
	item, err := parseRef(args[1])
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.RepoDir(repo.Slug()), item.DocPath())
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s has not been exported yet (expected %s)", item.Ref(), path)
		}
		return err
	}

	out := string(raw)
	if colorsEnabled() {
		rendered, err := glamour.RenderWithEnvironmentConfig(out)
		if err == nil {
			out = strings.TrimSpace(rendered) + "\n"
		}
	}
	cmd.Print(out)
	return nil
}

// parseRef turns ISSUE-42 or PR-7 into an item, accepting any case.
func parseRef(ref string) (domain.Item, error) {
	prefix, num, ok := strings.Cut(strings.ToUpper(ref), "-")
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: reference %q is not of the form ISSUE-N or PR-N", domain.ErrInvalidInput, ref)
	}
	var kind domain.ItemKind
	switch prefix {
	case "ISSUE":
		kind = domain.KindIssue
	case "PR":
		kind = domain.KindPull
	default:
		return domain.Item{}, fmt.Errorf("%w: unknown reference prefix %q", domain.ErrInvalidInput, prefix)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return domain.Item{}, fmt.Errorf("%w: reference number %q", domain.ErrInvalidInput, num)
	}
	return domain.Item{Kind: kind, Number: n}, nil
}

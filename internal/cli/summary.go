package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	summaryRepoStyle  = lipgloss.NewStyle().Bold(true)
	summaryCountStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	summaryWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// colorsEnabled reports whether terminal colors should be used,
// honoring NO_COLOR and dumb terminals.
func colorsEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

func styled(text string, style lipgloss.Style) string {
	if colorsEnabled() {
		return style.Render(text)
	}
	return text
}

// printSummaries writes the end-of-run report: items rendered, assets
// fetched, assets missing, per repository.
func printSummaries(w io.Writer, summaries []repoSummary) {
	for _, s := range summaries {
		fmt.Fprintf(w, "%s: %s rendered",
			styled(s.Repo, summaryRepoStyle),
			styled(fmt.Sprintf("%d items", s.ItemsRendered), summaryCountStyle))
		if s.ItemsSkipped > 0 {
			fmt.Fprintf(w, ", %s", styled(fmt.Sprintf("%d skipped", s.ItemsSkipped), summaryWarnStyle))
		}
		fmt.Fprintf(w, "; assets: %d fetched, %d cached, ", s.Fetch.Fetched, s.Fetch.Skipped)
		missing := fmt.Sprintf("%d missing", s.Fetch.Missing)
		if s.Fetch.Missing > 0 {
			missing = styled(missing, summaryWarnStyle)
		}
		fmt.Fprint(w, missing)
		if s.ExtFix.Renamed > 0 {
			fmt.Fprintf(w, "; %d extensions corrected", s.ExtFix.Renamed)
		}
		if len(s.ExtFix.Unrecognized) > 0 {
			fmt.Fprintf(w, "; %d files need manual review", len(s.ExtFix.Unrecognized))
		}
		fmt.Fprintln(w)
	}
}

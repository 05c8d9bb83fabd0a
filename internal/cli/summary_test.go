package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/issuearc-cli/internal/extfix"
	"github.com/custodia-labs/issuearc-cli/internal/fetch"
)

func TestPrintSummaries(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	printSummaries(&buf, []repoSummary{
		{
			Repo:          "octo/widgets",
			ItemsRendered: 12,
			Fetch:         fetch.Stats{Fetched: 3, Skipped: 5, Missing: 1},
		},
		{
			Repo:          "octo/gadgets",
			ItemsRendered: 2,
			ItemsSkipped:  1,
			ExtFix:        extfix.Result{Renamed: 2, Unrecognized: []string{"assets/issues/4/001_blob.img"}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "octo/widgets: 12 items rendered; assets: 3 fetched, 5 cached, 1 missing")
	assert.Contains(t, out, "octo/gadgets: 2 items rendered, 1 skipped")
	assert.Contains(t, out, "2 extensions corrected")
	assert.Contains(t, out, "1 files need manual review")
}

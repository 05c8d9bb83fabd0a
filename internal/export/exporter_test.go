package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/issuearc-cli/internal/config"
	"github.com/custodia-labs/issuearc-cli/internal/domain"
	"github.com/custodia-labs/issuearc-cli/internal/logger"
)

var testRepo = domain.Repo{Owner: "acme", Name: "widgets"}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.RawRoot = filepath.Join(t.TempDir(), "raw")
	cfg.OutRoot = filepath.Join(t.TempDir(), "out")
	return cfg
}

func writeRaw(t *testing.T, cfg config.Config, rel, content string) {
	t.Helper()
	path := filepath.Join(cfg.RawDir(testRepo.Slug()), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readDoc(t *testing.T, cfg config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.RepoDir(testRepo.Slug()), rel))
	require.NoError(t, err)
	return string(data)
}

func quietLogs(t *testing.T) {
	t.Helper()
	logger.SetOutput(&strings.Builder{})
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })
}

// issue42 is the canonical scenario: a body embedding one image and two
// comments at T1 < T2.
const issue42 = `[
  {"number": 42, "title": "screenshots", "state": "open",
   "user": {"login": "alice"},
   "html_url": "https://github.com/acme/widgets/issues/42",
   "body": "see ![img](https://user-images.githubusercontent.com/1/abc.png)",
   "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-03T00:00:00Z"}
]`

const issue42Comments = `[
  {"id": 2, "body": "second", "user": {"login": "carol"}, "created_at": "2024-01-02T10:00:00Z"},
  {"id": 1, "body": "first", "user": {"login": "bob"}, "created_at": "2024-01-02T09:00:00Z"}
]`

func TestRender_Issue42Scenario(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	writeRaw(t, cfg, "issues.json", issue42)
	writeRaw(t, cfg, "prs.json", "[]")
	writeRaw(t, cfg, "issue_comments/ISSUE-42.json", issue42Comments)

	res, err := New(cfg, testRepo).Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.ItemsRendered)
	assert.Zero(t, res.ItemsSkipped)

	doc := readDoc(t, cfg, "issues/ISSUE-42.md")

	// The image link is rewritten to the deterministic local path.
	assert.Contains(t, doc, "see ![img](../assets/issues/42/001_abc.png)")
	assert.NotContains(t, doc, "githubusercontent.com")

	// Body first, then the comments in timestamp order.
	bodyIdx := strings.Index(doc, "see ![img]")
	firstIdx := strings.Index(doc, "### bob | 2024-01-02T09:00:00Z")
	secondIdx := strings.Index(doc, "### carol | 2024-01-02T10:00:00Z")
	require.NotEqual(t, -1, firstIdx)
	require.NotEqual(t, -1, secondIdx)
	assert.Less(t, bodyIdx, firstIdx)
	assert.Less(t, firstIdx, secondIdx)

	// One pending reference was discovered.
	require.Len(t, res.Refs, 1)
	ref := res.Refs[0]
	assert.Equal(t, "https://user-images.githubusercontent.com/1/abc.png", ref.URL)
	assert.Equal(t, "assets/issues/42/001_abc.png", ref.LocalPath)
	assert.Equal(t, domain.AssetPending, ref.State)
	assert.Equal(t, domain.OriginDirect, ref.Origin)
}

func TestRender_Deterministic(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	writeRaw(t, cfg, "issues.json", issue42)
	writeRaw(t, cfg, "prs.json", "[]")
	writeRaw(t, cfg, "issue_comments/ISSUE-42.json", issue42Comments)

	_, err := New(cfg, testRepo).Render(context.Background())
	require.NoError(t, err)
	first := readDoc(t, cfg, "issues/ISSUE-42.md")

	// Re-run over unchanged input: byte-identical output.
	_, err = New(cfg, testRepo).Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, readDoc(t, cfg, "issues/ISSUE-42.md"))
}

func TestRender_MalformedCommentFileDoesNotStopSiblings(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	writeRaw(t, cfg, "issues.json", `[
	  {"number": 1, "title": "a", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"},
	  {"number": 2, "title": "b", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}
	]`)
	writeRaw(t, cfg, "prs.json", "[]")
	writeRaw(t, cfg, "issue_comments/ISSUE-1.json", `{broken`)

	res, err := New(cfg, testRepo).Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsRendered)

	// Item 1 renders with zero comments, item 2 normally.
	assert.Contains(t, readDoc(t, cfg, "issues/ISSUE-1.md"), "_No comments_")
	assert.Contains(t, readDoc(t, cfg, "issues/ISSUE-2.md"), "# Issue #2: b")
}

func TestRender_MalformedCaptureAborts(t *testing.T) {
	cfg := testConfig(t)
	writeRaw(t, cfg, "issues.json", `{"not": "an array"}`)
	writeRaw(t, cfg, "prs.json", "[]")

	_, err := New(cfg, testRepo).Render(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedCapture)
}

func TestRender_CrossLinking(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	writeRaw(t, cfg, "issues.json", `[
	  {"number": 1, "title": "bug", "body": "broken",
	   "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}
	]`)
	writeRaw(t, cfg, "prs.json", `[
	  {"number": 2, "title": "fix", "body": "Fixes #1",
	   "created_at": "2024-01-02T00:00:00Z", "updated_at": "2024-01-02T00:00:00Z"}
	]`)
	writeRaw(t, cfg, "issue_comments/ISSUE-1.json", `[
	  {"id": 9, "body": "resolved by PR #2", "created_at": "2024-01-03T00:00:00Z"}
	]`)

	_, err := New(cfg, testRepo).Render(context.Background())
	require.NoError(t, err)

	issueDoc := readDoc(t, cfg, "issues/ISSUE-1.md")
	assert.Contains(t, issueDoc, "- [PR #2](https://github.com/acme/widgets/pull/2)")

	pullDoc := readDoc(t, cfg, "prs/PR-2.md")
	assert.Contains(t, pullDoc, "- [Issue #1](https://github.com/acme/widgets/issues/1)")
}

func TestRender_PullReviewCommentsMerged(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	writeRaw(t, cfg, "issues.json", "[]")
	writeRaw(t, cfg, "prs.json", `[
	  {"number": 5, "title": "refactor",
	   "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}
	]`)
	writeRaw(t, cfg, "pr_issue_comments/PR-5.json", `[
	  {"id": 20, "body": "late discussion", "user": {"login": "bob"},
	   "created_at": "2024-01-03T00:00:00Z"}
	]`)
	writeRaw(t, cfg, "pr_review_comments/PR-5.json", `[
	  {"id": 10, "body": "early review", "user": {"login": "erin"},
	   "path": "main.go", "line": 3, "created_at": "2024-01-02T00:00:00Z"}
	]`)

	_, err := New(cfg, testRepo).Render(context.Background())
	require.NoError(t, err)

	doc := readDoc(t, cfg, "prs/PR-5.md")
	reviewIdx := strings.Index(doc, "### erin")
	discussIdx := strings.Index(doc, "### bob")
	require.NotEqual(t, -1, reviewIdx)
	require.NotEqual(t, -1, discussIdx)
	assert.Less(t, reviewIdx, discussIdx) // interleaved by timestamp
	assert.Contains(t, doc, "`main.go:3`")
}

func TestRender_ItemFailureIsolated(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	// Item 1 has no creation timestamp and fails the merge; item 2 renders.
	writeRaw(t, cfg, "issues.json", `[
	  {"number": 1, "title": "no timestamps"},
	  {"number": 2, "title": "fine", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}
	]`)
	writeRaw(t, cfg, "prs.json", "[]")

	res, err := New(cfg, testRepo).Render(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.ItemsRendered)
	assert.Equal(t, 1, res.ItemsSkipped)

	assert.NoFileExists(t, filepath.Join(cfg.RepoDir(testRepo.Slug()), "issues", "ISSUE-1.md"))
	assert.FileExists(t, filepath.Join(cfg.RepoDir(testRepo.Slug()), "issues", "ISSUE-2.md"))
}

func TestRender_Cancellation(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	writeRaw(t, cfg, "issues.json", issue42)
	writeRaw(t, cfg, "prs.json", "[]")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, testRepo).Render(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

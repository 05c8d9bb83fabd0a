// Package rawstore reads the flat JSON capture files produced by the
// capture step. One paginated array per item kind, plus one comment
// array file per item per comment kind:
//
//	<raw-root>/<OWNER_REPO>/issues.json
//	<raw-root>/<OWNER_REPO>/prs.json
//	<raw-root>/<OWNER_REPO>/issue_comments/ISSUE-<n>.json
//	<raw-root>/<OWNER_REPO>/pr_issue_comments/PR-<n>.json
//	<raw-root>/<OWNER_REPO>/pr_review_comments/PR-<n>.json
//
// The raw shapes are the GitHub REST representations, decoded through
// go-github types at this boundary and mapped to domain records. The
// package is read-only and has no network dependency.
package rawstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
	"github.com/custodia-labs/issuearc-cli/internal/logger"
)

// Capture file names under the repository's raw directory.
const (
	issuesFile            = "issues.json"
	pullsFile             = "prs.json"
	issueCommentsDir      = "issue_comments"
	pullIssueCommentsDir  = "pr_issue_comments"
	pullReviewCommentsDir = "pr_review_comments"
)

// Store reads one repository's raw capture from disk.
type Store struct {
	dir  string
	repo domain.Repo
}

// New creates a Store rooted at the repository's raw directory
// (<raw-root>/<OWNER_REPO>).
func New(rawRoot string, repo domain.Repo) *Store {
	return &Store{dir: filepath.Join(rawRoot, repo.Slug()), repo: repo}
}

// ReadItems loads the two top-level capture files and returns issues and
// pull requests as separate lists. Pull requests that the REST issues
// endpoint echoes into issues.json are skipped. A missing or non-array
// top-level file fails with domain.ErrMalformedCapture; an element that
// does not decode is skipped with a warning so one bad record cannot take
// the repository down.
func (s *Store) ReadItems() (issues, pulls []*domain.Item, err error) {
	rawIssues, err := readArray(filepath.Join(s.dir, issuesFile))
	if err != nil {
		return nil, nil, err
	}
	rawPulls, err := readArray(filepath.Join(s.dir, pullsFile))
	if err != nil {
		return nil, nil, err
	}

	for i, raw := range rawIssues {
		var issue gh.Issue
		if err := json.Unmarshal(raw, &issue); err != nil {
			logger.Warn("%s: issues.json[%d]: %v, skipping", s.repo, i, err)
			continue
		}
		if issue.IsPullRequest() {
			continue
		}
		issues = append(issues, s.mapIssue(&issue))
	}

	for i, raw := range rawPulls {
		var pull gh.PullRequest
		if err := json.Unmarshal(raw, &pull); err != nil {
			logger.Warn("%s: prs.json[%d]: %v, skipping", s.repo, i, err)
			continue
		}
		pulls = append(pulls, s.mapPull(&pull))
	}

	return issues, pulls, nil
}

// IssueComments returns the discussion comments captured for an issue.
// A missing file means zero comments, not an error; a malformed file is
// reported and treated as zero comments so siblings are unaffected.
func (s *Store) IssueComments(number int) []domain.Comment {
	path := filepath.Join(s.dir, issueCommentsDir, fmt.Sprintf("ISSUE-%d.json", number))
	return s.readIssueStyleComments(path)
}

// PullComments returns the merged raw comment streams for a pull
// request: discussion comments plus review comments. Each stream is
// isolated the same way as IssueComments.
func (s *Store) PullComments(number int) []domain.Comment {
	name := fmt.Sprintf("PR-%d.json", number)
	comments := s.readIssueStyleComments(filepath.Join(s.dir, pullIssueCommentsDir, name))
	comments = append(comments, s.readReviewComments(filepath.Join(s.dir, pullReviewCommentsDir, name))...)
	return comments
}

func (s *Store) readIssueStyleComments(path string) []domain.Comment {
	var raw []*gh.IssueComment
	if !s.decodeCommentFile(path, &raw) {
		return nil
	}
	comments := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		comments = append(comments, domain.Comment{
			ID:        c.GetID(),
			Kind:      domain.KindIssueComment,
			Author:    c.GetUser().GetLogin(),
			Body:      c.GetBody(),
			CreatedAt: c.GetCreatedAt().Time,
		})
	}
	return comments
}

func (s *Store) readReviewComments(path string) []domain.Comment {
	var raw []*gh.PullRequestComment
	if !s.decodeCommentFile(path, &raw) {
		return nil
	}
	comments := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		line := c.GetLine()
		if line == 0 {
			line = c.GetOriginalLine()
		}
		comments = append(comments, domain.Comment{
			ID:        c.GetID(),
			Kind:      domain.KindReviewComment,
			Author:    c.GetUser().GetLogin(),
			Body:      c.GetBody(),
			CreatedAt: c.GetCreatedAt().Time,
			Path:      c.GetPath(),
			Line:      line,
		})
	}
	return comments
}

// decodeCommentFile reads a per-item comment file into dst. Returns
// false when the file is absent or unusable.
func (s *Store) decodeCommentFile(path string, dst any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("%s: read %s: %v, treating as zero comments", s.repo, path, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("%s: parse %s: %v, treating as zero comments", s.repo, path, err)
		return false
	}
	return true
}

func (s *Store) mapIssue(issue *gh.Issue) *domain.Item {
	labels := make([]string, len(issue.Labels))
	for i, l := range issue.Labels {
		labels[i] = l.GetName()
	}
	return &domain.Item{
		Repo:      s.repo,
		Kind:      domain.KindIssue,
		Number:    issue.GetNumber(),
		Title:     issue.GetTitle(),
		Author:    issue.GetUser().GetLogin(),
		State:     issue.GetState(),
		Labels:    labels,
		URL:       issue.GetHTMLURL(),
		Body:      issue.GetBody(),
		CreatedAt: issue.GetCreatedAt().Time,
		UpdatedAt: issue.GetUpdatedAt().Time,
		ClosedAt:  issue.GetClosedAt().Time,
	}
}

func (s *Store) mapPull(pull *gh.PullRequest) *domain.Item {
	labels := make([]string, len(pull.Labels))
	for i, l := range pull.Labels {
		labels[i] = l.GetName()
	}
	return &domain.Item{
		Repo:      s.repo,
		Kind:      domain.KindPull,
		Number:    pull.GetNumber(),
		Title:     pull.GetTitle(),
		Author:    pull.GetUser().GetLogin(),
		State:     pull.GetState(),
		Labels:    labels,
		URL:       pull.GetHTMLURL(),
		Body:      pull.GetBody(),
		CreatedAt: pull.GetCreatedAt().Time,
		UpdatedAt: pull.GetUpdatedAt().Time,
		ClosedAt:  pull.GetClosedAt().Time,
	}
}

// readArray reads a file expected to hold one paginated JSON array and
// returns its elements undecoded.
func readArray(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrMalformedCapture, path, err)
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("%w: %s is not a paginated array: %v", domain.ErrMalformedCapture, path, err)
	}
	return elements, nil
}

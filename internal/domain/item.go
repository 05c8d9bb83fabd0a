package domain

import (
	"fmt"
	"strings"
	"time"
)

// ItemKind distinguishes the two exportable entity kinds.
type ItemKind string

const (
	// KindIssue is a repository issue.
	KindIssue ItemKind = "issue"

	// KindPull is a pull request.
	KindPull ItemKind = "pr"
)

// Dir returns the output subdirectory for documents of this kind.
func (k ItemKind) Dir() string {
	return string(k) + "s"
}

// FilePrefix returns the document/raw-file prefix for this kind
// ("ISSUE" or "PR").
func (k ItemKind) FilePrefix() string {
	if k == KindPull {
		return "PR"
	}
	return "ISSUE"
}

// Repo identifies a repository by owner and name.
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo parses an OWNER/REPO identifier.
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("%w: repository %q (want OWNER/REPO)", ErrInvalidInput, s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

// String returns the OWNER/REPO form.
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Slug returns the filesystem-safe OWNER_REPO form used for raw and
// output directories.
func (r Repo) Slug() string {
	return r.Owner + "_" + r.Name
}

// URL returns the repository web URL.
func (r Repo) URL() string {
	return "https://github.com/" + r.Owner + "/" + r.Name
}

// Item is an issue or pull request. Identity is (Repo, Kind, Number).
type Item struct {
	Repo      Repo
	Kind      ItemKind
	Number    int
	Title     string
	Author    string
	State     string
	Labels    []string
	URL       string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  time.Time // zero when the item is still open
}

// Ref returns the ISSUE-<n>/PR-<n> reference used in filenames.
func (i *Item) Ref() string {
	return fmt.Sprintf("%s-%d", i.Kind.FilePrefix(), i.Number)
}

// DocPath returns the rendered document path relative to the
// repository's export directory.
func (i *Item) DocPath() string {
	return fmt.Sprintf("%s/%s.md", i.Kind.Dir(), i.Ref())
}

// CommentKind distinguishes plain discussion comments from pull request
// review comments.
type CommentKind string

const (
	// KindIssueComment is a plain discussion comment.
	KindIssueComment CommentKind = "issue-comment"

	// KindReviewComment is a pull request review comment anchored to a diff.
	KindReviewComment CommentKind = "review-comment"
)

// Comment is a single comment on an item. Review comments carry a diff
// anchor (Path, Line) that the renderer surfaces but never sorts by.
type Comment struct {
	ID        int64
	Kind      CommentKind
	Author    string
	Body      string
	CreatedAt time.Time

	// Diff anchor, review comments only.
	Path string
	Line int
}

// Package render serializes merged timelines into canonical Markdown
// documents. Output is deterministic: fixed section order, fixed field
// order with a literal placeholder for absent values, RFC3339 UTC
// timestamps, trailing whitespace trimmed, and exactly one trailing
// newline — so unchanged input re-renders byte-identically and exports
// diff cleanly across runs.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

// placeholder stands in for absent optional fields; the field line
// itself is never omitted.
const placeholder = "(none)"

// Document renders one timeline. Bodies are passed through verbatim
// apart from the asset-link rewriting already applied upstream; unknown
// markdown constructs are preserved. related lists cross-referenced item
// numbers (pull requests for issues, issues for pull requests).
func Document(tl *domain.Timeline, related []int) (string, error) {
	if tl == nil || tl.Item == nil || len(tl.Entries) == 0 {
		return "", fmt.Errorf("%w: empty timeline", domain.ErrRender)
	}
	item := tl.Item
	if item.Number <= 0 {
		return "", fmt.Errorf("%w: item has no number", domain.ErrRender)
	}
	if !tl.Entries[0].IsBody {
		return "", fmt.Errorf("%w: %s timeline does not start with the body", domain.ErrRender, item.Ref())
	}

	var sb strings.Builder

	kindLabel := "Issue"
	if item.Kind == domain.KindPull {
		kindLabel = "PR"
	}
	sb.WriteString(fmt.Sprintf("# %s #%d: %s\n\n", kindLabel, item.Number, item.Title))

	writeField(&sb, "URL", item.URL)
	writeField(&sb, "State", strings.ToUpper(item.State))
	writeField(&sb, "Author", item.Author)
	writeField(&sb, "Labels", strings.Join(item.Labels, ", "))
	writeField(&sb, "Created", timestamp(item.CreatedAt))
	writeField(&sb, "Updated", timestamp(item.UpdatedAt))
	writeField(&sb, "Closed", timestamp(item.ClosedAt))
	sb.WriteString("\n")

	sb.WriteString("## Description\n\n")
	sb.WriteString(bodyOrDefault(tl.Entries[0].Body, "_No description_"))
	sb.WriteString("\n\n")

	writeRelated(&sb, item, related)

	sb.WriteString("## Comments\n\n")
	comments := tl.Entries[1:]
	if len(comments) == 0 {
		sb.WriteString("_No comments_\n")
	} else {
		for i, entry := range comments {
			if i > 0 {
				sb.WriteString("\n")
			}
			writeComment(&sb, entry)
		}
	}

	return normalize(sb.String()), nil
}

func writeField(sb *strings.Builder, name, value string) {
	if value == "" {
		value = placeholder
	}
	fmt.Fprintf(sb, "- %s: %s\n", name, value)
}

func writeComment(sb *strings.Builder, entry domain.Entry) {
	author := entry.Author
	if author == "" {
		author = "unknown"
	}
	fmt.Fprintf(sb, "### %s | %s\n", author, timestamp(entry.CreatedAt))
	if entry.Kind == domain.KindReviewComment && entry.Path != "" {
		fmt.Fprintf(sb, "`%s:%d`\n", entry.Path, entry.Line)
	}
	sb.WriteString("\n")
	sb.WriteString(bodyOrDefault(entry.Body, "_No content_"))
	sb.WriteString("\n")
}

func writeRelated(sb *strings.Builder, item *domain.Item, related []int) {
	heading, segment, label := "Related PRs", "pull", "PR"
	if item.Kind == domain.KindPull {
		heading, segment, label = "Related Issues", "issues", "Issue"
	}

	sb.WriteString("## " + heading + "\n\n")
	if len(related) == 0 {
		sb.WriteString("_None_\n\n")
		return
	}
	for _, num := range related {
		fmt.Fprintf(sb, "- [%s #%d](%s/%s/%d)\n", label, num, item.Repo.URL(), segment, num)
	}
	sb.WriteString("\n")
}

// timestamp formats a time in the document's single fixed format.
// Zero times render as the placeholder.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return t.UTC().Format(time.RFC3339)
}

func bodyOrDefault(body, def string) string {
	if strings.TrimSpace(body) == "" {
		return def
	}
	return body
}

// normalize trims trailing whitespace per line and guarantees exactly
// one trailing newline.
func normalize(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = strings.TrimRight(out, "\n")
	return out + "\n"
}

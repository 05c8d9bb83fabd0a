package render

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

// pullContextPattern matches conversational references such as
// "PR #12", "pull request #12", or "merge #12".
var pullContextPattern = regexp.MustCompile(`(?i)(?:\bpr\b|\bpull\s+request\b|\bpull\b|\bmerge\b)\s*#(\d+)`)

// issueFixPattern matches closing keywords such as "fixes #3" or
// "closes owner/repo#3".
var issueFixPattern = regexp.MustCompile(`(?i)\b(?:fixe[sd]?|close[sd]?|resolve[sd]?)\s+(?:([\w.-]+)/([\w.-]+))?#(\d+)`)

// RelatedPulls scans an issue's body and comment texts for references
// to pull requests that exist in the capture, by full URL or by
// conversational "#N" phrasing. Returns the numbers sorted ascending.
func RelatedPulls(texts []string, pullNumbers map[int]bool, repo domain.Repo) []int {
	urlPattern := regexp.MustCompile(fmt.Sprintf(
		`(?i)https?://github\.com/%s/%s/pull/(\d+)`,
		regexp.QuoteMeta(repo.Owner), regexp.QuoteMeta(repo.Name)))

	found := make(map[int]bool)
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, m := range urlPattern.FindAllStringSubmatch(text, -1) {
			addIfKnown(found, m[1], pullNumbers)
		}
		for _, m := range pullContextPattern.FindAllStringSubmatch(text, -1) {
			addIfKnown(found, m[1], pullNumbers)
		}
	}
	return sortedKeys(found)
}

// RelatedIssues scans a pull request body for closing keywords naming
// issues that exist in the capture. Cross-repository references are
// counted only when they name this repository.
func RelatedIssues(body string, issueNumbers map[int]bool, repo domain.Repo) []int {
	if body == "" {
		return nil
	}
	found := make(map[int]bool)
	for _, m := range issueFixPattern.FindAllStringSubmatch(body, -1) {
		owner, name := m[1], m[2]
		if owner != "" && name != "" {
			if !strings.EqualFold(owner, repo.Owner) || !strings.EqualFold(name, repo.Name) {
				continue
			}
		}
		addIfKnown(found, m[3], issueNumbers)
	}
	return sortedKeys(found)
}

func addIfKnown(found map[int]bool, numStr string, known map[int]bool) {
	num, err := strconv.Atoi(numStr)
	if err == nil && known[num] {
		found[num] = true
	}
}

func sortedKeys(set map[int]bool) []int {
	if len(set) == 0 {
		return nil
	}
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

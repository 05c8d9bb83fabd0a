// Package assets discovers embedded image references in item text and
// maps each distinct URL to a deterministic local file. Discovery and
// rewriting are pure and offline: local names derive from the item's
// kind, number, and order of first appearance, never from content
// hashes, so a re-run assigns identical names before any download.
package assets

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

// imgPattern matches inline markdown images and HTML <img> tags. Capture
// groups: 1 = markdown URL, 2/3/4 = quoted/single-quoted/bare src.
var imgPattern = regexp.MustCompile(
	`(?is)!\[[^\]]*\]\(\s*([^)\s]+)(?:\s+"[^"]*"|\s+'[^']*')?\s*\)` +
		`|<img\b[^>]*?\bsrc=(?:"([^"]*)"|'([^']*)'|([^>\s]+))[^>]*?>`)

// unsafeChars matches filename characters outside the ASCII-safe set.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

const (
	maxBaseNameLen = 40
	maxExtLen      = 10

	// fallbackExt marks files whose content type is unknown until the
	// bytes exist; the extension normalizer corrects it afterwards.
	fallbackExt = ".img"
)

// Classify reports which download path can resolve url. The second
// return is false for URLs outside the two known origins (left as-is in
// documents, never queued).
func Classify(raw string) (domain.AssetOrigin, bool) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "github.com" && strings.HasPrefix(u.Path, "/user-attachments/assets/"):
		return domain.OriginSession, true
	case host == "githubusercontent.com" || strings.HasSuffix(host, ".githubusercontent.com"):
		return domain.OriginDirect, true
	default:
		return "", false
	}
}

// Rewriter accumulates asset references for one item and rewrites its
// text. Two occurrences of the same URL within the item share one local
// path; distinct items never share references.
type Rewriter struct {
	repo   domain.Repo
	kind   domain.ItemKind
	number int

	counter int
	byURL   map[string]*domain.AssetReference
	refs    []*domain.AssetReference
}

// NewRewriter creates a Rewriter for one item.
func NewRewriter(repo domain.Repo, kind domain.ItemKind, number int) *Rewriter {
	return &Rewriter{
		repo:   repo,
		kind:   kind,
		number: number,
		byURL:  make(map[string]*domain.AssetReference),
	}
}

// Rewrite replaces every recognized image URL in text with its relative
// local path, assigning references in order of first appearance.
// Non-link text and unrecognized URLs pass through untouched.
func (r *Rewriter) Rewrite(text string) string {
	if text == "" {
		return ""
	}
	return imgPattern.ReplaceAllStringFunc(text, func(match string) string {
		src := matchedURL(match)
		if src == "" {
			return match
		}
		ref := r.reference(src)
		if ref == nil {
			return match
		}
		return strings.Replace(match, src, ref.DocRelPath, 1)
	})
}

// References returns the item's references in discovery order.
func (r *Rewriter) References() []*domain.AssetReference {
	return r.refs
}

// reference returns the existing reference for src or records a new
// one. Returns nil for URLs outside the known origins.
func (r *Rewriter) reference(src string) *domain.AssetReference {
	if ref, ok := r.byURL[src]; ok {
		return ref
	}
	origin, ok := Classify(src)
	if !ok {
		return nil
	}

	r.counter++
	local := path.Join("assets", r.kind.Dir(), strconv.Itoa(r.number), localName(src, r.counter))
	ref := &domain.AssetReference{
		Repo:       r.repo,
		Kind:       r.kind,
		Number:     r.number,
		URL:        src,
		Index:      r.counter,
		Origin:     origin,
		State:      domain.AssetPending,
		LocalPath:  local,
		DocRelPath: "../" + local, // documents live one level below the repo dir
	}
	r.byURL[src] = ref
	r.refs = append(r.refs, ref)
	return ref
}

// matchedURL extracts the URL from an imgPattern match.
func matchedURL(match string) string {
	groups := imgPattern.FindStringSubmatch(match)
	if groups == nil {
		return ""
	}
	for _, g := range groups[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// localName builds the deterministic filename for the n-th asset of an
// item: a zero-padded sequence index plus a sanitized basename from the
// URL path. The extension comes from the URL when plausible, otherwise
// the ".img" placeholder.
func localName(raw string, index int) string {
	base := "image"
	if u, err := url.Parse(raw); err == nil {
		if b := path.Base(u.Path); b != "." && b != "/" && b != "" {
			base = b
		}
	}
	ext := strings.ToLower(path.Ext(base))
	name := strings.TrimSuffix(base, path.Ext(base))

	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		name = "image"
	}
	if len(name) > maxBaseNameLen {
		name = name[:maxBaseNameLen]
	}
	if ext == "" || len(ext) > maxExtLen {
		ext = fallbackExt
	}
	return fmt.Sprintf("%03d_%s%s", index, name, ext)
}

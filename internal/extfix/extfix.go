// Package extfix is the post-download pass that corrects asset file
// extensions. Discovery assigns filenames before any bytes exist, so an
// asset may carry the ".img" placeholder or an extension that
// contradicts its actual content. This pass sniffs image signatures,
// renames mismatched files, and rewrites every reference in the
// repository's rendered documents. It is idempotent: correct files and
// their documents are left untouched.
package extfix

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/custodia-labs/issuearc-cli/internal/fsutil"
	"github.com/custodia-labs/issuearc-cli/internal/logger"
)

// signature maps a magic-number prefix to its extension.
type signature struct {
	prefix []byte
	ext    string
}

var signatures = []signature{
	{prefix: []byte("\x89PNG\r\n\x1a\n"), ext: ".png"},
	{prefix: []byte("\xff\xd8\xff"), ext: ".jpg"},
	{prefix: []byte("GIF87a"), ext: ".gif"},
	{prefix: []byte("GIF89a"), ext: ".gif"},
}

// acceptable lists extensions already consistent with a sniffed type.
var acceptable = map[string][]string{
	".png":  {".png"},
	".jpg":  {".jpg", ".jpeg"},
	".gif":  {".gif"},
	".webp": {".webp"},
}

// ImageExts lists the extensions a normalized asset may carry, in
// resolution order.
var ImageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// imgRefPattern finds ".img" placeholder paths inside document text.
// Asset paths only ever contain sanitized name characters, so the
// class stays clear of the Markdown link syntax around them.
var imgRefPattern = regexp.MustCompile(`[A-Za-z0-9._/-]+\.img\b`)

// Sniff returns the extension implied by the leading bytes of an image
// file, or "" when the content is not a recognized image type.
func Sniff(data []byte) string {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.ext
		}
	}
	// RIFF....WEBP
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return ".webp"
	}
	return ""
}

// SniffFile sniffs the first bytes of the file at path.
func SniffFile(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	head := make([]byte, 12)
	n, _ := f.Read(head)
	return Sniff(head[:n])
}

// Result summarizes one normalization pass.
type Result struct {
	Renamed       int
	RewrittenDocs int

	// Unrecognized lists asset paths (relative to the repo dir) whose
	// content matched no known image signature; they are left unchanged
	// for manual review.
	Unrecognized []string
}

// Normalize walks the repository export directory's assets tree,
// renames files whose sniffed type disagrees with their extension, and
// rewrites references across the repository's Markdown documents.
func Normalize(repoDir string) (Result, error) {
	var res Result

	assetsDir := filepath.Join(repoDir, "assets")
	if _, err := os.Stat(assetsDir); os.IsNotExist(err) {
		return res, nil
	}

	// Old relative path -> new relative path, slash-separated as
	// documents reference them.
	rewrites := make(map[string]string)

	err := filepath.WalkDir(assetsDir, func(assetPath string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		sniffed := SniffFile(assetPath)
		ext := strings.ToLower(filepath.Ext(assetPath))
		if sniffed == "" {
			if ext == ".img" {
				rel, _ := filepath.Rel(repoDir, assetPath)
				res.Unrecognized = append(res.Unrecognized, filepath.ToSlash(rel))
			}
			return nil
		}
		if extMatches(ext, sniffed) {
			return nil
		}

		newPath := strings.TrimSuffix(assetPath, filepath.Ext(assetPath)) + sniffed
		if err := os.Rename(assetPath, newPath); err != nil {
			logger.Warn("rename %s: %v", assetPath, err)
			return nil
		}
		res.Renamed++

		oldRel, _ := filepath.Rel(repoDir, assetPath)
		newRel, _ := filepath.Rel(repoDir, newPath)
		rewrites[filepath.ToSlash(oldRel)] = filepath.ToSlash(newRel)
		return nil
	})
	if err != nil {
		return res, err
	}

	// The document pass always runs: a re-rendered document may carry
	// ".img" placeholder links whose files an earlier pass renamed.
	rewritten, err := rewriteDocs(repoDir, rewrites)
	res.RewrittenDocs = rewritten
	return res, err
}

func extMatches(ext, sniffed string) bool {
	for _, ok := range acceptable[sniffed] {
		if ext == ok {
			return true
		}
	}
	return false
}

// rewriteDocs updates every Markdown document under repoDir whose text
// references a renamed asset. Documents reference assets by relative
// path, so a plain substring replacement of the repo-relative path
// covers both "assets/..." and "../assets/..." forms. Remaining ".img"
// references are then resolved against the files actually on disk.
func rewriteDocs(repoDir string, rewrites map[string]string) (int, error) {
	count := 0
	err := filepath.WalkDir(repoDir, func(docPath string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(docPath, ".md") {
			return err
		}

		data, err := os.ReadFile(docPath)
		if err != nil {
			return err
		}
		text := string(data)
		updated := text
		for oldRel, newRel := range rewrites {
			updated = strings.ReplaceAll(updated, oldRel, newRel)
		}
		updated = resolveStaleRefs(docPath, updated)
		if updated == text {
			return nil
		}
		if err := fsutil.WriteFileAtomic(docPath, []byte(updated), 0o644); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// resolveStaleRefs repairs ".img" references whose files an earlier
// pass already renamed. Each remaining reference is resolved relative
// to the document: first by probing the same stem under every known
// image extension, then by matching the NNN_ numeric prefix against
// the sibling files.
func resolveStaleRefs(docPath, text string) string {
	refs := imgRefPattern.FindAllString(text, -1)
	if len(refs) == 0 {
		return text
	}

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true

		target := filepath.Join(filepath.Dir(docPath), filepath.FromSlash(ref))
		if resolved := resolveOnDisk(ref, target); resolved != "" {
			text = strings.ReplaceAll(text, ref, resolved)
		}
	}
	return text
}

// resolveOnDisk maps one stale reference to the reference it should
// carry, or "" when no renamed file can be found.
func resolveOnDisk(ref, target string) string {
	stem := strings.TrimSuffix(target, ".img")
	for _, ext := range ImageExts {
		if _, err := os.Stat(stem + ext); err == nil {
			return strings.TrimSuffix(ref, ".img") + ext
		}
	}

	// Fallback: match the NNN_ prefix in the same directory.
	prefix, _, ok := strings.Cut(filepath.Base(stem), "_")
	if !ok {
		return ""
	}
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix+"_") {
			continue
		}
		if !slices.Contains(ImageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		return path.Join(path.Dir(ref), e.Name())
	}
	return ""
}

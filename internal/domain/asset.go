package domain

import "time"

// AssetOrigin classifies which download path can resolve an embedded
// asset URL.
type AssetOrigin string

const (
	// OriginDirect is a content-delivery host reachable with a plain
	// authenticated GET (githubusercontent.com).
	OriginDirect AssetOrigin = "direct"

	// OriginSession is a host that binds downloads to a logged-in web
	// session and rejects bare bearer-token requests
	// (github.com/user-attachments).
	OriginSession AssetOrigin = "session"
)

// AssetState is the resolution state of an AssetReference.
type AssetState string

const (
	// AssetPending means the reference has a local path assigned but no
	// bytes on disk yet.
	AssetPending AssetState = "pending"

	// AssetFetched means the bytes exist at the local path.
	AssetFetched AssetState = "fetched"

	// AssetMissing means retries were exhausted or the URL is permanently
	// unreachable; the document keeps a dangling relative link.
	AssetMissing AssetState = "missing"
)

// AssetReference is an embedded-image URL discovered in one item's text
// and its deterministic local mapping. Identity is (item, URL): the same
// URL under two items maps to two independent references so each item's
// asset folder stays self-contained.
type AssetReference struct {
	Repo   Repo
	Kind   ItemKind
	Number int

	// URL is the source URL exactly as it appears in the markdown.
	URL string

	// Index is the order of first appearance within the item, starting
	// at 1. It drives the deterministic filename and is stable across
	// re-runs, before any download occurs.
	Index int

	Origin AssetOrigin
	State  AssetState

	// LocalPath is the asset path relative to the repository's export
	// directory, e.g. "assets/issues/42/001_img.png".
	LocalPath string

	// DocRelPath is the same target relative to the rendered document's
	// directory, the form written into the markdown.
	DocRelPath string
}

// MissingAttachmentRecord is one line of the append-only
// missing-attachments journal. Records are never mutated or removed;
// duplicates across runs are expected.
type MissingAttachmentRecord struct {
	Repo       string    `json:"repo"`
	RepoSlug   string    `json:"repo_slug"`
	Kind       string    `json:"kind"`
	Number     int       `json:"number"`
	URL        string    `json:"url"`
	LocalPath  string    `json:"local_path"`
	DocPath    string    `json:"doc_path"`
	Reason     string    `json:"reason"`
	RecordedAt time.Time `json:"recorded_at"`
}

package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

func sampleRecord(url string) domain.MissingAttachmentRecord {
	return domain.MissingAttachmentRecord{
		Repo:       "acme/widgets",
		RepoSlug:   "acme_widgets",
		Kind:       "issue",
		Number:     42,
		URL:        url,
		LocalPath:  "assets/issues/42/001_x.png",
		DocPath:    "issues/ISSUE-42.md",
		Reason:     "status 404",
		RecordedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func readLines(t *testing.T, path string) []domain.MissingAttachmentRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []domain.MissingAttachmentRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.MissingAttachmentRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestFileAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "missing.jsonl")
	j := NewFile(path)

	require.NoError(t, j.Append(sampleRecord("https://cdn.example/a")))
	require.NoError(t, j.Append(sampleRecord("https://cdn.example/b")))

	records := readLines(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, "https://cdn.example/a", records[0].URL)
	assert.Equal(t, "https://cdn.example/b", records[1].URL)
	assert.Equal(t, "acme_widgets", records[0].RepoSlug)
}

func TestFileAppend_IsAppendOnlyAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonl")

	require.NoError(t, NewFile(path).Append(sampleRecord("https://cdn.example/a")))
	// A second run with a fresh journal instance must not truncate.
	require.NoError(t, NewFile(path).Append(sampleRecord("https://cdn.example/a")))

	records := readLines(t, path)
	assert.Len(t, records, 2) // duplicates across runs are expected
}

func TestMemory(t *testing.T) {
	var m Memory
	require.NoError(t, m.Append(sampleRecord("https://cdn.example/a")))

	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "https://cdn.example/a", records[0].URL)

	// Returned slice is a copy.
	records[0].URL = "mutated"
	assert.Equal(t, "https://cdn.example/a", m.Records()[0].URL)
}

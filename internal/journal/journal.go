// Package journal records asset references that could not be resolved
// to local files. The journal is an explicit output channel passed into
// the fetcher, not ambient state, so tests can substitute an in-memory
// sink. Entries are append-only and never deduplicated; repeated runs
// may legitimately record the same URL again.
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

// Sink receives missing-attachment records.
type Sink interface {
	Append(rec domain.MissingAttachmentRecord) error
}

// File is a Sink backed by a JSONL file, one record per line, appends
// serialized behind a mutex so repository workers can share it.
type File struct {
	mu   sync.Mutex
	path string
}

// Ensure File implements the interface.
var _ Sink = (*File)(nil)

// NewFile creates a file-backed journal at path. The file is created on
// first append.
func NewFile(path string) *File {
	return &File{path: path}
}

// Append writes one record as a JSON line.
func (f *File) Append(rec domain.MissingAttachmentRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// Path returns the journal file location.
func (f *File) Path() string {
	return f.path
}

// Memory is an in-memory Sink for tests.
type Memory struct {
	mu      sync.Mutex
	records []domain.MissingAttachmentRecord
}

var _ Sink = (*Memory)(nil)

// Append stores the record.
func (m *Memory) Append(rec domain.MissingAttachmentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything appended so far.
func (m *Memory) Records() []domain.MissingAttachmentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MissingAttachmentRecord, len(m.records))
	copy(out, m.records)
	return out
}

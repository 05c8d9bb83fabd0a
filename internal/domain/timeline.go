package domain

import (
	"fmt"
	"sort"
)

// Entry is one element of a Timeline: the item body or a comment.
type Entry struct {
	Comment

	// IsBody marks the synthetic zeroth entry holding the item body. Its
	// timestamp is the item's creation time, for display only; it never
	// participates in comment ordering.
	IsBody bool
}

// Timeline is the merged, ordered sequence of an item's body and
// comments. Entries[0] is always the body entry. Once built, a Timeline
// is immutable and owned by the rendering step that consumes it.
type Timeline struct {
	Item    *Item
	Entries []Entry
}

// BuildTimeline merges an item's comment streams into one causally
// ordered timeline. Comments are sorted by (created-at, id) ascending;
// the sort is stable, so comments with equal keys keep their input
// order. The item body is prepended as a synthetic zeroth entry.
func BuildTimeline(item *Item, comments []Comment) (*Timeline, error) {
	if item == nil {
		return nil, ErrInvalidInput
	}
	if item.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: %s has no creation time", ErrInvalidTimestamp, item.Ref())
	}
	for _, c := range comments {
		if c.CreatedAt.IsZero() {
			return nil, fmt.Errorf("%w: comment %d on %s", ErrInvalidTimestamp, c.ID, item.Ref())
		}
	}

	sorted := make([]Comment, len(comments))
	copy(sorted, comments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	entries := make([]Entry, 0, len(sorted)+1)
	entries = append(entries, Entry{
		IsBody: true,
		Comment: Comment{
			Author:    item.Author,
			Body:      item.Body,
			CreatedAt: item.CreatedAt,
		},
	})
	for _, c := range sorted {
		entries = append(entries, Entry{Comment: c})
	}

	return &Timeline{Item: item, Entries: entries}, nil
}

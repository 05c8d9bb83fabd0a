package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/issuearc-cli/internal/domain"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		ref    string
		kind   domain.ItemKind
		number int
	}{
		{"ISSUE-42", domain.KindIssue, 42},
		{"PR-7", domain.KindPull, 7},
		{"issue-3", domain.KindIssue, 3},
		{"pr-108", domain.KindPull, 108},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			item, err := parseRef(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, item.Kind)
			assert.Equal(t, tt.number, item.Number)
		})
	}
}

func TestParseRefRejectsMalformedReferences(t *testing.T) {
	for _, ref := range []string{"", "42", "ISSUE", "ISSUE-", "ISSUE-abc", "ISSUE-0", "ISSUE--4", "TICKET-9"} {
		t.Run(ref, func(t *testing.T) {
			_, err := parseRef(ref)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

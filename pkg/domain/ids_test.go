package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "coursegate/pkg/domain-errors"
)

// TestParseSubjectID_Invariants validates the parsing invariant:
// "subject ids must be non-empty, unpadded, bounded, printable strings"
func TestParseSubjectID_Invariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"rejects empty string", "", false},
		{"rejects leading whitespace", " abc", false},
		{"rejects trailing newline", "abc\n", false},
		{"rejects null byte", "abc\x00def", false},
		{"rejects invalid utf8", string([]byte{0xff, 0xfe}), false},
		{"rejects over-long input", strings.Repeat("a", maxSubjectIDLength+1), false},
		{"accepts provider uid", "Xk2vT9qLmZcPq0sR7uW1", true},
		{"accepts max length", strings.Repeat("a", maxSubjectIDLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseSubjectID(tt.input)
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				assert.True(t, id.IsNil())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

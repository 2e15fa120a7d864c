package domain

import (
	"strings"
	"unicode"

	dErrors "coursegate/pkg/domain-errors"
)

// maxSubjectIDLength bounds provider subject identifiers. Providers issue
// opaque ids well under this size; anything longer is treated as hostile input.
const maxSubjectIDLength = 128

// SubjectID identifies a principal as issued by the identity provider.
// Invariant: non-empty, no surrounding whitespace, no control characters.
//
// Usage: construct via ParseSubjectID at trust boundaries; direct casting
// bypasses validation and is reserved for tests and stores reading back
// values they previously validated.
type SubjectID string

// ParseSubjectID validates s and returns it as a SubjectID.
//
// Errors: returns CodeInvalidInput for empty, padded, over-long, or
// control-character input.
func ParseSubjectID(s string) (SubjectID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id cannot be empty")
	}
	if strings.TrimSpace(s) != s {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id cannot contain surrounding whitespace")
	}
	if len(s) > maxSubjectIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subject id too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return "", dErrors.New(dErrors.CodeInvalidInput, "subject id contains invalid characters")
		}
	}
	return SubjectID(s), nil
}

func (id SubjectID) String() string {
	return string(id)
}

// IsNil reports whether the id is unset.
func (id SubjectID) IsNil() bool {
	return id == ""
}

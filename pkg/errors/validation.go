package errors

import (
	"strings"
	"unicode"
)

// ValidateBlockID validates a block identifier for safety and correctness.
// Block ids key the flow-block cache and link footnote references to their
// bodies, so malformed ids corrupt both.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No whitespace
//   - Maximum length of 256 characters
func ValidateBlockID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidBlock, "block id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidBlock, "block id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidBlock, "block id contains control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidBlock, "block id contains whitespace")
		}
	}

	if strings.Contains(id, "\x00") {
		return New(ErrCodeInvalidBlock, "block id contains null byte")
	}

	return nil
}

// ValidateBlockIDs validates a sequence of block ids and enforces uniqueness.
// Duplicate ids within one layout pass make cache keying and footnote lookup
// ambiguous.
func ValidateBlockIDs(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if err := ValidateBlockID(id); err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return New(ErrCodeInvalidDocument, "duplicate block id: %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// MaxExpressionLength bounds user-supplied expression text. Long inputs are
// almost always paste accidents and would produce unreadable labels anyway.
const MaxExpressionLength = 512

// ValidateExpressionText performs surface-level validation of user-supplied
// expression text before it reaches the parser.
//
// The rules are intentionally conservative:
//   - No empty text (after trimming)
//   - No control characters (they would corrupt the env encoding handed to
//     the renderer subprocess)
//   - Maximum length of MaxExpressionLength
//
// Structural validation (balanced parentheses, allow-listed identifiers) is
// done by the expression parser.
func ValidateExpressionText(text string) error {
	if strings.TrimSpace(text) == "" {
		return New(ErrCodeInvalidInput, "expression cannot be empty")
	}

	if len(text) > MaxExpressionLength {
		return New(ErrCodeInvalidInput, "expression too long (max %d characters)", MaxExpressionLength)
	}

	for _, r := range text {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "expression contains control characters")
		}
	}

	return nil
}

// ValidateOutputPath validates a job's target artifact path for safety.
// It prevents traversal outside the output directory and rejects characters
// that cannot survive the process boundary.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "output path too long (max 500 characters)")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid control characters")
		}
	}

	if strings.Contains(path, "\x00") {
		return New(ErrCodeInvalidPath, "output path contains null byte")
	}

	// Reject relative escapes; the artifact is relocated with the caller's
	// privileges, so ".." segments must never sneak through a form field.
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "output path contains parent directory traversal")
		}
	}

	return nil
}

// ValidateEnvValue checks that a value is safe to pass to a child process
// through an environment variable. Fields are passed as opaque strings and
// never interpolated into a shell line, so the only hard requirement is the
// absence of control characters (NUL would truncate the entry, newlines can
// confuse naive env parsers on the other side).
func ValidateEnvValue(field, value string) error {
	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s contains control characters", field)
		}
	}
	return nil
}

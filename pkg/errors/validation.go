package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// maxIdentifierLength bounds study names, node ids and route ids.
const maxIdentifierLength = 128

// identifierRegex matches study names and node/route identifiers: lowercase
// words separated by single dashes or underscores ("elevator-sea", "feed").
var identifierRegex = regexp.MustCompile(`^[a-z0-9]+([-_][a-z0-9]+)*$`)

// ValidateIdentifier validates a node, route or study identifier.
// The kind is used in the message ("node id", "route id", ...).
func ValidateIdentifier(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s cannot be empty", kind)
	}
	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidInput, "%s too long (max %d characters)", kind, maxIdentifierLength)
	}
	if !identifierRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid %s: %q", kind, id)
	}
	return nil
}

// ValidateFactor validates a zoom or scale factor read from a URL or flag.
// It must be finite and positive, and at most max when max > 0.
func ValidateFactor(kind string, f, max float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return New(ErrCodeInvalidInput, "invalid %s %v", kind, f)
	}
	if max > 0 && f > max {
		return New(ErrCodeInvalidInput, "%s %v out of range (max %v)", kind, f, max)
	}
	return nil
}

// ValidateStudyName validates a case study name taken from a URL or flag.
// It rejects names that could be used for path traversal before the registry
// lookup ever sees them.
func ValidateStudyName(name string) error {
	if err := ValidateIdentifier("study name", name); err != nil {
		return Wrap(ErrCodeInvalidStudy, err, "invalid study")
	}
	return nil
}

// ValidateStudyFilename validates a study document filename for safety.
// It ensures the filename is a simple basename without path components.
func ValidateStudyFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidStudy, "study filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidStudy, "study filename cannot contain path separators")
	}

	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidStudy, "study filename cannot be a hidden file")
	}

	return nil
}

// ValidatePath validates a relative output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

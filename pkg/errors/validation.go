package errors

import "unicode"

// maxNameLength bounds frame names accepted from untrusted input.
const maxNameLength = 256

// ValidateName validates a frame name supplied by an API client.
// Names end up in generated C headers and JSON tables, so the rules are
// conservative:
//   - No empty names
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "frame name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "frame name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "frame name contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates an output or input file path supplied on the command
// line or in a saved layout.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

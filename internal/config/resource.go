package config

import (
	"fmt"
	"strings"
	"unicode"
)

const asinLength = 10

// ValidateResourceID accepts any non-empty opaque id that is safe to put
// in a URL path segment and a directory name. strict additionally requires
// the 10-character alphanumeric ASIN shape.
func ValidateResourceID(id string, strict bool) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidResourceID)
	}
	if strings.HasPrefix(id, "-") || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: %q must not start with '-' or '.'", ErrInvalidResourceID, id)
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune(`/\?#%:`, r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidResourceID, id, r)
		}
	}
	if !strict {
		return nil
	}
	if len(id) != asinLength {
		return fmt.Errorf("%w: %q is not %d characters long", ErrInvalidResourceID, id, asinLength)
	}
	for _, r := range id {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return fmt.Errorf("%w: %q must be upper-case alphanumeric", ErrInvalidResourceID, id)
		}
	}
	return nil
}

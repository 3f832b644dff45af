package plate

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxLen is the longest plate the facility accepts.
const MaxLen = 20

var plateRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Normalize returns the canonical form of a raw plate string. The normalized
// form is the sole key used for lookups and the only value ever persisted,
// so "abc123" and "ABC123" resolve to the same vehicle.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate checks a raw plate against the facility's format rules. It does
// not normalize; callers normalize separately so validation messages echo
// the caller's input.
func Validate(raw string) error {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fmt.Errorf("vehicle plate is required")
	}
	if len(s) > MaxLen {
		return fmt.Errorf("plate %q exceeds %d characters", s, MaxLen)
	}
	if !plateRe.MatchString(s) {
		return fmt.Errorf("plate %q may only contain letters, digits and hyphens", s)
	}
	return nil
}

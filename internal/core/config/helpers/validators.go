package helpers

import (
	"os"
	"strings"

	"github.com/gobwas/glob"
)

func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}

// ValidGlob reports whether pattern compiles as a glob.
func ValidGlob(pattern string) bool {
	_, err := glob.Compile(pattern)
	return err == nil
}

// IsPathOverlap reports whether two cleaned paths name the same directory or
// one nested inside the other.
func IsPathOverlap(a, b string) bool {
	if a == b {
		return true
	}
	if strings.HasPrefix(a, b+string(os.PathSeparator)) {
		return true
	}
	if strings.HasPrefix(b, a+string(os.PathSeparator)) {
		return true
	}
	return false
}

package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	slugMaxLen  = 60
	slugDefault = "server"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a display name into its namespace component: lowercase,
// non-alphanumeric runs collapsed to a single hyphen, hyphens trimmed,
// truncated to 60 characters. Names that slug to nothing fall back to
// the literal "server".
func Slug(name string) string {
	s := nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > slugMaxLen {
		s = strings.Trim(s[:slugMaxLen], "-")
	}
	if s == "" {
		return slugDefault
	}
	return s
}

// Namespace derives the user-scoped namespace for a server. It is a
// deterministic function of (profile, display name): two installs of the
// same name by the same user collide and the second overwrites.
// Registry-sourced servers keep the upstream namespace verbatim instead.
func Namespace(profileId, name string) string {
	return fmt.Sprintf("user:%s:%s", profileId, Slug(name))
}

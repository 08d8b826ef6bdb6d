package normalize

import (
	"fmt"
	"strings"

	"github.com/atoms-tech/mcpregistry/internal/schema"
)

// AuthType coerces an arbitrary auth descriptor into a member of the
// active revision's auth_type set. The literal "none" never survives
// normalization unless the revision both disables NormalizeNone and
// explicitly allows it. Unrecognized inputs land on the revision
// fallback, which may be the empty string (NULL) in revisions that
// allow it.
func AuthType(input interface{}, rev *schema.Revision) string {
	raw := ""
	switch v := input.(type) {
	case nil:
	case string:
		raw = v
	default:
		raw = fmt.Sprintf("%v", v)
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "null", "undefined":
		return rev.AuthFallback
	case "none":
		if !rev.NormalizeNone && rev.AllowsAuth("none") {
			return "none"
		}
		return rev.AuthFallback
	case "oauth":
		if rev.AllowsAuth("oauth") {
			return "oauth"
		}
	case "api_key", "apikey", "bearer":
		if rev.AllowsAuth("bearer") {
			return "bearer"
		}
		if rev.AllowsAuth("api_key") {
			return "api_key"
		}
	}
	return rev.AuthFallback
}

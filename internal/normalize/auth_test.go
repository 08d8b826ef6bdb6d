package normalize

import (
	"testing"

	"github.com/atoms-tech/mcpregistry/internal/schema"
)

// TestAuthType_CurrentRevision tests auth coercion under the v2 vocabulary
func TestAuthType_CurrentRevision(t *testing.T) {
	rev := schema.Builtin()["v2"]

	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name:  "Nil descriptor falls back",
			input: nil,
			want:  "bearer",
		},
		{
			name:  "Empty string falls back",
			input: "",
			want:  "bearer",
		},
		{
			name:  "Literal null string falls back",
			input: "null",
			want:  "bearer",
		},
		{
			name:  "Literal undefined string falls back",
			input: "undefined",
			want:  "bearer",
		},
		{
			name:  "None is rewritten to the fallback",
			input: "none",
			want:  "bearer",
		},
		{
			name:  "OAuth passes through",
			input: "oauth",
			want:  "oauth",
		},
		{
			name:  "Bearer passes through",
			input: "bearer",
			want:  "bearer",
		},
		{
			name:  "Legacy api_key collapses to bearer",
			input: "api_key",
			want:  "bearer",
		},
		{
			name:  "Legacy apikey spelling collapses to bearer",
			input: "apikey",
			want:  "bearer",
		},
		{
			name:  "Input is case-insensitive",
			input: "OAuth",
			want:  "oauth",
		},
		{
			name:  "Surrounding whitespace is ignored",
			input: "  bearer  ",
			want:  "bearer",
		},
		{
			name:  "Unknown value falls back",
			input: "kerberos",
			want:  "bearer",
		},
		{
			name:  "Non-string descriptor falls back",
			input: 42,
			want:  "bearer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthType(tt.input, rev); got != tt.want {
				t.Fatalf("AuthType(%v) = %q, expected %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestAuthType_LegacyRevision tests auth coercion under the v1 vocabulary,
// where NULL is a legal stored value
func TestAuthType_LegacyRevision(t *testing.T) {
	rev := schema.Builtin()["v1"]

	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{
			name:  "Nil descriptor stores NULL",
			input: nil,
			want:  "",
		},
		{
			name:  "None is rewritten, not stored",
			input: "none",
			want:  "",
		},
		{
			name:  "Legacy api_key kept as bearer preferentially",
			input: "api_key",
			want:  "bearer",
		},
		{
			name:  "OAuth passes through",
			input: "oauth",
			want:  "oauth",
		},
		{
			name:  "Unknown value stores NULL",
			input: "kerberos",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthType(tt.input, rev); got != tt.want {
				t.Fatalf("AuthType(%v) = %q, expected %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestAuthType_NeverLiteralNone tests that "none" never survives under
// any builtin revision
func TestAuthType_NeverLiteralNone(t *testing.T) {
	inputs := []interface{}{nil, "", "null", "undefined", "none", "NONE", "None"}

	for name, rev := range schema.Builtin() {
		for _, input := range inputs {
			if got := AuthType(input, rev); got == "none" {
				t.Fatalf("Revision %s: AuthType(%v) produced literal \"none\"", name, input)
			}
		}
	}

	t.Log("✓ No builtin revision stores the literal \"none\"")
}

// TestAuthType_ResultAlwaysLegal tests that any input lands on a value the
// revision accepts
func TestAuthType_ResultAlwaysLegal(t *testing.T) {
	inputs := []interface{}{
		nil, "", "null", "undefined", "none", "oauth", "api_key",
		"apikey", "bearer", "kerberos", "OAUTH", 3.14, true,
	}

	for name, rev := range schema.Builtin() {
		for _, input := range inputs {
			got := AuthType(input, rev)
			if !rev.AllowsAuth(got) {
				t.Fatalf("Revision %s: AuthType(%v) = %q is not legal under the revision", name, input, got)
			}
		}
	}
}

// Package schema mirrors the store's check constraints as versioned,
// explicit value sets. The allowed auth/source/tier vocabularies have
// changed over the system's history; normalizers read the active revision
// instead of inlining literals so a constraint change is a one-place
// update.
package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Revision is one version of the store's constraint vocabulary
type Revision struct {
	Name string `yaml:"name"`

	// AuthTypes is the set accepted by the auth_type check constraint.
	// An empty AuthFallback means NULL is stored for unknown inputs,
	// which is only legal when AllowNullAuth is set.
	AuthTypes     []string `yaml:"auth_types"`
	AuthFallback  string   `yaml:"auth_fallback"`
	AllowNullAuth bool     `yaml:"allow_null_auth"`

	// NormalizeNone controls the historical ambiguity around the literal
	// "none": when true it is rewritten to AuthFallback, when false it is
	// passed through only if AuthTypes contains it.
	NormalizeNone bool `yaml:"normalize_none"`

	Sources    []string `yaml:"sources"`
	Tiers      []string `yaml:"tiers"`
	Scopes     []string `yaml:"scopes"`
	Transports []string `yaml:"transports"`
}

// AllowsAuth reports whether v is a legal auth_type under this revision.
// The empty string stands for NULL.
func (r *Revision) AllowsAuth(v string) bool {
	if v == "" {
		return r.AllowNullAuth
	}
	return contains(r.AuthTypes, v)
}

// AllowsSource reports whether v is a legal source under this revision
func (r *Revision) AllowsSource(v string) bool {
	return contains(r.Sources, v)
}

// AllowsTier reports whether v is a legal tier under this revision
func (r *Revision) AllowsTier(v string) bool {
	return contains(r.Tiers, v)
}

// AllowsScope reports whether v is a legal scope under this revision
func (r *Revision) AllowsScope(v string) bool {
	return contains(r.Scopes, v)
}

// AllowsTransport reports whether v is a legal transport_type under this revision
func (r *Revision) AllowsTransport(v string) bool {
	return contains(r.Transports, v)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Builtin returns the revisions shipped with the service, keyed by name.
// v1 is the earlier constraint (api_key still allowed, NULL supported),
// v2 the current one (oauth/bearer only, bearer fallback).
func Builtin() map[string]*Revision {
	return map[string]*Revision{
		"v1": {
			Name:          "v1",
			AuthTypes:     []string{"oauth", "api_key", "bearer"},
			AuthFallback:  "",
			AllowNullAuth: true,
			NormalizeNone: true,
			Sources:       []string{"registry", "github", "custom"},
			Tiers:         []string{"first-party", "curated", "community"},
			Scopes:        []string{"user", "organization", "project", "system"},
			Transports:    []string{"http", "sse", "stdio"},
		},
		"v2": {
			Name:          "v2",
			AuthTypes:     []string{"oauth", "bearer"},
			AuthFallback:  "bearer",
			NormalizeNone: true,
			Sources:       []string{"registry", "github", "custom"},
			Tiers:         []string{"first-party", "curated", "community"},
			Scopes:        []string{"user", "organization", "project", "system"},
			Transports:    []string{"http", "sse", "stdio"},
		},
	}
}

type revisionsFile struct {
	Revisions []Revision `yaml:"revisions"`
}

// Load returns the revision set, starting from the builtin revisions and
// overlaying any revisions defined in the YAML file at path. An empty
// path returns the builtins unchanged.
func Load(path string) (map[string]*Revision, error) {
	revs := Builtin()
	if path == "" {
		return revs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema revisions file: %w", err)
	}

	var file revisionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schema revisions file: %w", err)
	}

	for i := range file.Revisions {
		rev := file.Revisions[i]
		if rev.Name == "" {
			return nil, fmt.Errorf("schema revision %d in %s has no name", i, path)
		}
		if err := rev.validate(); err != nil {
			return nil, fmt.Errorf("schema revision %q: %w", rev.Name, err)
		}
		revs[rev.Name] = &rev
	}

	return revs, nil
}

// Select loads the revision set and picks the active revision by name
func Select(path, name string) (*Revision, error) {
	revs, err := Load(path)
	if err != nil {
		return nil, err
	}
	rev, ok := revs[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema revision %q", name)
	}
	return rev, nil
}

func (r *Revision) validate() error {
	if len(r.AuthTypes) == 0 {
		return fmt.Errorf("auth_types must not be empty")
	}
	if r.AuthFallback == "" && !r.AllowNullAuth {
		return fmt.Errorf("auth_fallback is empty but allow_null_auth is false")
	}
	if r.AuthFallback != "" && !contains(r.AuthTypes, r.AuthFallback) {
		return fmt.Errorf("auth_fallback %q is not in auth_types", r.AuthFallback)
	}
	return nil
}

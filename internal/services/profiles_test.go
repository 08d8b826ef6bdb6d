package services

import (
	"context"
	"errors"
	"testing"

	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
)

// TestSync_CreatesOnFirstSight tests profile materialization from claims
func TestSync_CreatesOnFirstSight(t *testing.T) {
	profiles := newMockProfileRepo()
	svc := NewProfileService(profiles)

	claims := map[string]interface{}{
		"email": "dev@example.com",
		"name":  "Dev Example",
	}

	profile, err := svc.Sync(context.Background(), "auth0|abc123", claims)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if profile.Id == "" {
		t.Fatal("New profile needs an id")
	}
	if profile.ExternalId != "auth0|abc123" {
		t.Fatalf("External id not recorded: %s", profile.ExternalId)
	}
	if profile.Email != "dev@example.com" || profile.Name != "Dev Example" {
		t.Fatalf("Claims not applied: %+v", profile)
	}
	if _, ok := profiles.profiles["auth0|abc123"]; !ok {
		t.Fatal("Profile not persisted")
	}
}

// TestSync_ReturnsExistingRow tests that a known identity is not recreated
func TestSync_ReturnsExistingRow(t *testing.T) {
	profiles := newMockProfileRepo()
	existing := &models.Profile{Id: "profile-1", ExternalId: "auth0|abc123"}
	profiles.profiles["auth0|abc123"] = existing
	svc := NewProfileService(profiles)

	profile, err := svc.Sync(context.Background(), "auth0|abc123", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if profile.Id != "profile-1" {
		t.Fatalf("Expected the existing row, got %s", profile.Id)
	}
}

// TestSync_MissingClaimsTolerated tests that email and name are optional
func TestSync_MissingClaimsTolerated(t *testing.T) {
	profiles := newMockProfileRepo()
	svc := NewProfileService(profiles)

	profile, err := svc.Sync(context.Background(), "auth0|abc123", map[string]interface{}{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if profile.Email != "" || profile.Name != "" {
		t.Fatalf("Expected empty claims fields: %+v", profile)
	}
}

// TestSync_EmptySubject tests the fail case for tokens without a subject
func TestSync_EmptySubject(t *testing.T) {
	svc := NewProfileService(newMockProfileRepo())

	if _, err := svc.Sync(context.Background(), "", nil); !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("Expected ErrProfileMissing, got: %v", err)
	}
}

// TestSync_CreateFailure tests that an unpersistable profile reports missing
func TestSync_CreateFailure(t *testing.T) {
	profiles := newMockProfileRepo()
	profiles.createErr = errBackend
	svc := NewProfileService(profiles)

	if _, err := svc.Sync(context.Background(), "auth0|abc123", nil); !errors.Is(err, ErrProfileMissing) {
		t.Fatalf("Expected ErrProfileMissing, got: %v", err)
	}
}

// TestSync_FirstSightRace tests that losing the create race re-reads the winner
func TestSync_FirstSightRace(t *testing.T) {
	winner := &models.Profile{Id: "winner", ExternalId: "auth0|abc123"}
	racey := &raceProfileRepo{inner: newMockProfileRepo(), winner: winner}
	svc := NewProfileService(racey)

	profile, err := svc.Sync(context.Background(), "auth0|abc123", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if profile.Id != "winner" {
		t.Fatalf("Expected the race winner, got %s", profile.Id)
	}
}

// raceProfileRepo misses the first lookup, rejects the create as a
// duplicate, then serves the winner
type raceProfileRepo struct {
	inner   *mockProfileRepo
	winner  *models.Profile
	lookups int
}

func (r *raceProfileRepo) GetByExternalId(ctx context.Context, externalId string) (*models.Profile, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, repository.ErrProfileNotFound
	}
	return r.winner, nil
}

func (r *raceProfileRepo) GetById(ctx context.Context, id string) (*models.Profile, error) {
	return r.inner.GetById(ctx, id)
}

func (r *raceProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	return repository.ErrAlreadyExists
}

func (r *raceProfileRepo) GetMembership(ctx context.Context, profileId, organizationId string) (*models.OrganizationMembership, error) {
	return r.inner.GetMembership(ctx, profileId, organizationId)
}

func (r *raceProfileRepo) IsPlatformAdmin(ctx context.Context, profileId string) (bool, error) {
	return r.inner.IsPlatformAdmin(ctx, profileId)
}

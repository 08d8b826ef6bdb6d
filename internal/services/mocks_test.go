package services

import (
	"context"
	"fmt"

	"github.com/atoms-tech/mcpregistry/internal/models"
	"github.com/atoms-tech/mcpregistry/internal/repository"
)

// mockServerRepo is an in-memory ServerRepository keyed by namespace
type mockServerRepo struct {
	servers map[string]*models.McpServer

	upsertErr          error
	updateTransportErr map[string]error

	upsertCalls          int
	updateTransportCalls int
}

func newMockServerRepo() *mockServerRepo {
	return &mockServerRepo{
		servers:            make(map[string]*models.McpServer),
		updateTransportErr: make(map[string]error),
	}
}

func (m *mockServerRepo) Upsert(ctx context.Context, server *models.McpServer) error {
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *server
	m.servers[server.Namespace] = &copied
	return nil
}

func (m *mockServerRepo) GetByNamespace(ctx context.Context, namespace string) (*models.McpServer, error) {
	server, ok := m.servers[namespace]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return server, nil
}

func (m *mockServerRepo) GetByID(ctx context.Context, id string) (*models.McpServer, error) {
	for _, server := range m.servers {
		if server.Id == id {
			return server, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockServerRepo) GetAll(ctx context.Context) ([]*models.McpServer, error) {
	all := make([]*models.McpServer, 0, len(m.servers))
	for _, server := range m.servers {
		all = append(all, server)
	}
	return all, nil
}

func (m *mockServerRepo) GetByUserId(ctx context.Context, userId string) ([]*models.McpServer, error) {
	matched := make([]*models.McpServer, 0)
	for _, server := range m.servers {
		if server.UserId == userId {
			matched = append(matched, server)
		}
	}
	return matched, nil
}

func (m *mockServerRepo) GetBySource(ctx context.Context, source string) ([]*models.McpServer, error) {
	matched := make([]*models.McpServer, 0)
	for _, server := range m.servers {
		if server.Source == source {
			matched = append(matched, server)
		}
	}
	return matched, nil
}

func (m *mockServerRepo) SetEnabled(ctx context.Context, namespace string, enabled bool) error {
	server, ok := m.servers[namespace]
	if !ok {
		return repository.ErrNotFound
	}
	server.Enabled = enabled
	return nil
}

func (m *mockServerRepo) UpdateTransport(ctx context.Context, namespace, transportType, url string) error {
	m.updateTransportCalls++
	if err := m.updateTransportErr[namespace]; err != nil {
		return err
	}
	server, ok := m.servers[namespace]
	if !ok {
		return repository.ErrNotFound
	}
	server.TransportType = transportType
	server.URL = url
	return nil
}

func (m *mockServerRepo) UpdateProxy(ctx context.Context, namespace string, proxy *models.ProxyConfig) error {
	server, ok := m.servers[namespace]
	if !ok {
		return repository.ErrNotFound
	}
	server.Proxy = proxy
	return nil
}

// mockProfileRepo is an in-memory ProfileRepository
type mockProfileRepo struct {
	profiles    map[string]*models.Profile // keyed by external id
	memberships map[string]*models.OrganizationMembership
	admins      map[string]bool

	createErr error
	lookupErr error
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{
		profiles:    make(map[string]*models.Profile),
		memberships: make(map[string]*models.OrganizationMembership),
		admins:      make(map[string]bool),
	}
}

func membershipKey(profileId, organizationId string) string {
	return profileId + "/" + organizationId
}

func (m *mockProfileRepo) addMembership(profileId, organizationId, role string) {
	m.memberships[membershipKey(profileId, organizationId)] = &models.OrganizationMembership{
		ProfileId:      profileId,
		OrganizationId: organizationId,
		Role:           role,
	}
}

func (m *mockProfileRepo) GetByExternalId(ctx context.Context, externalId string) (*models.Profile, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	profile, ok := m.profiles[externalId]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return profile, nil
}

func (m *mockProfileRepo) GetById(ctx context.Context, id string) (*models.Profile, error) {
	for _, profile := range m.profiles {
		if profile.Id == id {
			return profile, nil
		}
	}
	return nil, repository.ErrProfileNotFound
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.profiles[profile.ExternalId]; exists {
		return repository.ErrAlreadyExists
	}
	m.profiles[profile.ExternalId] = profile
	return nil
}

func (m *mockProfileRepo) GetMembership(ctx context.Context, profileId, organizationId string) (*models.OrganizationMembership, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	membership, ok := m.memberships[membershipKey(profileId, organizationId)]
	if !ok {
		return nil, repository.ErrMembershipNotFound
	}
	return membership, nil
}

func (m *mockProfileRepo) IsPlatformAdmin(ctx context.Context, profileId string) (bool, error) {
	if m.lookupErr != nil {
		return false, m.lookupErr
	}
	return m.admins[profileId], nil
}

// mockOAuthRepo is an in-memory OAuthRepository
type mockOAuthRepo struct {
	txns      map[string]*models.OAuthTransaction
	createErr error
}

func newMockOAuthRepo() *mockOAuthRepo {
	return &mockOAuthRepo{txns: make(map[string]*models.OAuthTransaction)}
}

func (m *mockOAuthRepo) Create(ctx context.Context, txn *models.OAuthTransaction) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.txns[txn.Id] = txn
	return nil
}

func (m *mockOAuthRepo) Get(ctx context.Context, id string) (*models.OAuthTransaction, error) {
	txn, ok := m.txns[id]
	if !ok {
		return nil, repository.ErrOAuthTransactionNotFound
	}
	return txn, nil
}

func (m *mockOAuthRepo) UpdateStatus(ctx context.Context, id, status string) error {
	txn, ok := m.txns[id]
	if !ok {
		return repository.ErrOAuthTransactionNotFound
	}
	txn.Status = status
	return nil
}

// mockRegistry is a canned registryFetcher
type mockRegistry struct {
	entries []models.RegistryServer
	err     error

	fetchCalls int
}

func (m *mockRegistry) FetchServers(ctx context.Context) ([]models.RegistryServer, error) {
	m.fetchCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

var errBackend = fmt.Errorf("backend unavailable")

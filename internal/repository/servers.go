package repository

import (
	"context"

	"github.com/atoms-tech/mcpregistry/internal/database"
	"github.com/atoms-tech/mcpregistry/internal/models"
)

// Re-export errors from database package for backward compatibility
var (
	ErrNotFound            = database.ErrNotFound
	ErrAlreadyExists       = database.ErrAlreadyExists
	ErrConstraintViolation = database.ErrConstraintViolation
)

// ServerRepository defines the interface for MCP server operations
type ServerRepository interface {
	Upsert(ctx context.Context, server *models.McpServer) error
	GetByNamespace(ctx context.Context, namespace string) (*models.McpServer, error)
	GetByID(ctx context.Context, id string) (*models.McpServer, error)
	GetAll(ctx context.Context) ([]*models.McpServer, error)
	GetByUserId(ctx context.Context, userId string) ([]*models.McpServer, error)
	GetBySource(ctx context.Context, source string) ([]*models.McpServer, error)
	SetEnabled(ctx context.Context, namespace string, enabled bool) error
	UpdateTransport(ctx context.Context, namespace, transportType, url string) error
	UpdateProxy(ctx context.Context, namespace string, proxy *models.ProxyConfig) error
}

// dynamoServerRepository implements ServerRepository using DynamoDB
type dynamoServerRepository struct {
	db *database.ServerStore
}

// NewServerRepository creates a new DynamoDB-backed server repository
func NewServerRepository(db *database.ServerStore) ServerRepository {
	return &dynamoServerRepository{
		db: db,
	}
}

func (r *dynamoServerRepository) Upsert(ctx context.Context, server *models.McpServer) error {
	return r.db.UpsertServer(ctx, server)
}

func (r *dynamoServerRepository) GetByNamespace(ctx context.Context, namespace string) (*models.McpServer, error) {
	return r.db.GetServerByNamespace(ctx, namespace)
}

func (r *dynamoServerRepository) GetByID(ctx context.Context, id string) (*models.McpServer, error) {
	return r.db.GetServerByID(ctx, id)
}

func (r *dynamoServerRepository) GetAll(ctx context.Context) ([]*models.McpServer, error) {
	return r.db.GetAllServers(ctx)
}

func (r *dynamoServerRepository) GetByUserId(ctx context.Context, userId string) ([]*models.McpServer, error) {
	return r.db.GetServersByUserId(ctx, userId)
}

func (r *dynamoServerRepository) GetBySource(ctx context.Context, source string) ([]*models.McpServer, error) {
	return r.db.GetServersBySource(ctx, source)
}

func (r *dynamoServerRepository) SetEnabled(ctx context.Context, namespace string, enabled bool) error {
	return r.db.SetEnabled(ctx, namespace, enabled)
}

func (r *dynamoServerRepository) UpdateTransport(ctx context.Context, namespace, transportType, url string) error {
	return r.db.UpdateTransport(ctx, namespace, transportType, url)
}

func (r *dynamoServerRepository) UpdateProxy(ctx context.Context, namespace string, proxy *models.ProxyConfig) error {
	return r.db.UpdateProxy(ctx, namespace, proxy)
}

package repository

import (
	"context"

	"github.com/atoms-tech/mcpregistry/internal/database"
	"github.com/atoms-tech/mcpregistry/internal/models"
)

var ErrOAuthTransactionNotFound = database.ErrOAuthTransactionNotFound

// OAuthRepository defines the interface for OAuth transaction operations
type OAuthRepository interface {
	Create(ctx context.Context, txn *models.OAuthTransaction) error
	Get(ctx context.Context, id string) (*models.OAuthTransaction, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// dynamoOAuthRepository implements OAuthRepository using DynamoDB
type dynamoOAuthRepository struct {
	db *database.OAuthDB
}

// NewOAuthRepository creates a new DynamoDB-backed OAuth repository
func NewOAuthRepository(db *database.OAuthDB) OAuthRepository {
	return &dynamoOAuthRepository{
		db: db,
	}
}

func (r *dynamoOAuthRepository) Create(ctx context.Context, txn *models.OAuthTransaction) error {
	return r.db.CreateTransaction(ctx, txn)
}

func (r *dynamoOAuthRepository) Get(ctx context.Context, id string) (*models.OAuthTransaction, error) {
	return r.db.GetTransaction(ctx, id)
}

func (r *dynamoOAuthRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.UpdateTransactionStatus(ctx, id, status)
}

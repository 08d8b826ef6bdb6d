package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/atoms-tech/mcpregistry/internal/models"
)

var (
	ErrOAuthTransactionNotFound = errors.New("oauth transaction not found")
)

// OAuthDB handles OAuth transaction table operations
type OAuthDB struct {
	client            *Client
	transactionsTable string
}

// NewOAuthDB creates a new OAuthDB instance
func NewOAuthDB(client *Client, transactionsTable string) *OAuthDB {
	return &OAuthDB{
		client:            client,
		transactionsTable: transactionsTable,
	}
}

// CreateTransaction inserts a new pending OAuth transaction
func (db *OAuthDB) CreateTransaction(ctx context.Context, txn *models.OAuthTransaction) error {
	av, err := attributevalue.MarshalMap(map[string]interface{}{
		"Id":               txn.Id,
		"ServerNamespace":  txn.ServerNamespace,
		"UserId":           txn.UserId,
		"Status":           txn.Status,
		"AuthorizationURL": txn.AuthorizationURL,
		"ExpiresAt":        txn.ExpiresAt.Unix(),
		"CreatedAt":        txn.CreatedAt.Unix(),
		"UpdatedAt":        txn.UpdatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal oauth transaction: %w", err)
	}

	_, err = db.client.DynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(db.transactionsTable),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(Id)"),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create oauth transaction: %w", err)
	}

	return nil
}

// GetTransaction retrieves an OAuth transaction by id
func (db *OAuthDB) GetTransaction(ctx context.Context, id string) (*models.OAuthTransaction, error) {
	result, err := db.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(db.transactionsTable),
		Key: map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberS{Value: id},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get oauth transaction: %w", err)
	}

	if result.Item == nil {
		return nil, ErrOAuthTransactionNotFound
	}

	var temp struct {
		Id               string `dynamodbav:"Id"`
		ServerNamespace  string `dynamodbav:"ServerNamespace"`
		UserId           string `dynamodbav:"UserId"`
		Status           string `dynamodbav:"Status"`
		AuthorizationURL string `dynamodbav:"AuthorizationURL"`
		ExpiresAt        int64  `dynamodbav:"ExpiresAt"`
		CreatedAt        int64  `dynamodbav:"CreatedAt"`
		UpdatedAt        int64  `dynamodbav:"UpdatedAt"`
	}

	err = attributevalue.UnmarshalMap(result.Item, &temp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth transaction: %w", err)
	}

	return &models.OAuthTransaction{
		Id:               temp.Id,
		ServerNamespace:  temp.ServerNamespace,
		UserId:           temp.UserId,
		Status:           temp.Status,
		AuthorizationURL: temp.AuthorizationURL,
		ExpiresAt:        time.Unix(temp.ExpiresAt, 0),
		CreatedAt:        time.Unix(temp.CreatedAt, 0),
		UpdatedAt:        time.Unix(temp.UpdatedAt, 0),
	}, nil
}

// UpdateTransactionStatus moves a transaction to a new status
func (db *OAuthDB) UpdateTransactionStatus(ctx context.Context, id, status string) error {
	_, err := db.client.DynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(db.transactionsTable),
		Key: map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(Id)"),
		UpdateExpression:    aws.String("SET #status = :status, UpdatedAt = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: status},
			":updated_at": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Unix())},
		},
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrOAuthTransactionNotFound
		}
		return fmt.Errorf("failed to update oauth transaction status: %w", err)
	}

	return nil
}

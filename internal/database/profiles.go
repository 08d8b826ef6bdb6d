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
	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/atoms-tech/mcpregistry/internal/models"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrMembershipNotFound = errors.New("membership not found")
)

// ProfileDB handles profile, membership and platform-admin table operations
type ProfileDB struct {
	client               *Client
	profilesTableName    string
	membershipsTableName string
	adminsTableName      string
}

// NewProfileDB creates a new ProfileDB instance
func NewProfileDB(client *Client, profilesTableName, membershipsTableName, adminsTableName string) *ProfileDB {
	return &ProfileDB{
		client:               client,
		profilesTableName:    profilesTableName,
		membershipsTableName: membershipsTableName,
		adminsTableName:      adminsTableName,
	}
}

// GetProfileByExternalId retrieves a profile by identity-provider subject
func (db *ProfileDB) GetProfileByExternalId(ctx context.Context, externalId string) (*models.Profile, error) {
	logger.WithField("external_id", externalId).Debug("Retrieving profile from DynamoDB")

	result, err := db.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(db.profilesTableName),
		FilterExpression: aws.String("ExternalId = :externalId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":externalId": &types.AttributeValueMemberS{Value: externalId},
		},
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"external_id": externalId,
			"error":       err.Error(),
		}).Error("Failed to query profile from DynamoDB")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, ErrProfileNotFound
	}

	return unmarshalProfile(result.Items[0])
}

// GetProfileById retrieves a profile by its internal id
func (db *ProfileDB) GetProfileById(ctx context.Context, id string) (*models.Profile, error) {
	result, err := db.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(db.profilesTableName),
		Key: map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberS{Value: id},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if result.Item == nil {
		return nil, ErrProfileNotFound
	}

	return unmarshalProfile(result.Item)
}

// unmarshalProfile converts a DynamoDB item to the domain model. Times
// are stored as Unix seconds.
func unmarshalProfile(item map[string]types.AttributeValue) (*models.Profile, error) {
	var temp struct {
		Id         string `dynamodbav:"Id"`
		ExternalId string `dynamodbav:"ExternalId"`
		Email      string `dynamodbav:"Email"`
		Name       string `dynamodbav:"Name"`
		CreatedAt  int64  `dynamodbav:"CreatedAt"`
		UpdatedAt  int64  `dynamodbav:"UpdatedAt"`
	}

	if err := attributevalue.UnmarshalMap(item, &temp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &models.Profile{
		Id:         temp.Id,
		ExternalId: temp.ExternalId,
		Email:      temp.Email,
		Name:       temp.Name,
		CreatedAt:  time.Unix(temp.CreatedAt, 0),
		UpdatedAt:  time.Unix(temp.UpdatedAt, 0),
	}, nil
}

// CreateProfile inserts a new profile row. The conditional expression
// keeps a concurrent first-sight sync from writing twice.
func (db *ProfileDB) CreateProfile(ctx context.Context, profile *models.Profile) error {
	av, err := attributevalue.MarshalMap(map[string]interface{}{
		"Id":         profile.Id,
		"ExternalId": profile.ExternalId,
		"Email":      profile.Email,
		"Name":       profile.Name,
		"CreatedAt":  profile.CreatedAt.Unix(),
		"UpdatedAt":  profile.UpdatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = db.client.DynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(db.profilesTableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(Id)"),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetMembership retrieves the membership row linking a profile to an organization
func (db *ProfileDB) GetMembership(ctx context.Context, profileId, organizationId string) (*models.OrganizationMembership, error) {
	result, err := db.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(db.membershipsTableName),
		FilterExpression: aws.String("ProfileId = :profileId AND OrganizationId = :orgId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":profileId": &types.AttributeValueMemberS{Value: profileId},
			":orgId":     &types.AttributeValueMemberS{Value: organizationId},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to query membership: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, ErrMembershipNotFound
	}

	var temp struct {
		ProfileId      string `dynamodbav:"ProfileId"`
		OrganizationId string `dynamodbav:"OrganizationId"`
		Role           string `dynamodbav:"Role"`
		CreatedAt      int64  `dynamodbav:"CreatedAt"`
	}
	if err := attributevalue.UnmarshalMap(result.Items[0], &temp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal membership: %w", err)
	}

	return &models.OrganizationMembership{
		ProfileId:      temp.ProfileId,
		OrganizationId: temp.OrganizationId,
		Role:           temp.Role,
		CreatedAt:      time.Unix(temp.CreatedAt, 0),
	}, nil
}

// IsPlatformAdmin checks the platform admin table for a profile
func (db *ProfileDB) IsPlatformAdmin(ctx context.Context, profileId string) (bool, error) {
	result, err := db.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(db.adminsTableName),
		Key: map[string]types.AttributeValue{
			"ProfileId": &types.AttributeValueMemberS{Value: profileId},
		},
		ProjectionExpression: aws.String("ProfileId"),
	})

	if err != nil {
		return false, fmt.Errorf("failed to check platform admin: %w", err)
	}

	return result.Item != nil, nil
}

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
	"github.com/atoms-tech/mcpregistry/internal/schema"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a record already exists
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConstraintViolation is returned when a write carries a value
	// outside the active schema revision's allowed sets. This is the
	// application-side mirror of the store's check constraints and is
	// a bug in normalizer logic, not something the runtime recovers from.
	ErrConstraintViolation = errors.New("constraint violation")
)

// ServerStore handles all DynamoDB operations for MCP server rows. The
// table is keyed by Namespace, so PutItem carries the upsert-by-identity
// semantics: concurrent installs with the same derived namespace race on
// the key and the store decides the winner.
type ServerStore struct {
	client    *Client
	tableName string
	revision  *schema.Revision
}

// NewServerStore creates a new ServerStore instance
func NewServerStore(client *Client, tableName string, revision *schema.Revision) *ServerStore {
	return &ServerStore{
		client:    client,
		tableName: tableName,
		revision:  revision,
	}
}

// checkConstraints validates a server row against the active schema
// revision before it is written
func (ss *ServerStore) checkConstraints(server *models.McpServer) error {
	if !ss.revision.AllowsTransport(server.TransportType) {
		return fmt.Errorf("%w: transport_type %q not in revision %s", ErrConstraintViolation, server.TransportType, ss.revision.Name)
	}
	if !ss.revision.AllowsAuth(server.AuthType) {
		return fmt.Errorf("%w: auth_type %q not in revision %s", ErrConstraintViolation, server.AuthType, ss.revision.Name)
	}
	if !ss.revision.AllowsSource(server.Source) {
		return fmt.Errorf("%w: source %q not in revision %s", ErrConstraintViolation, server.Source, ss.revision.Name)
	}
	if !ss.revision.AllowsTier(server.Tier) {
		return fmt.Errorf("%w: tier %q not in revision %s", ErrConstraintViolation, server.Tier, ss.revision.Name)
	}
	if !ss.revision.AllowsScope(server.Scope) || !server.ValidScope() {
		return fmt.Errorf("%w: valid_scope violated for scope %q", ErrConstraintViolation, server.Scope)
	}
	return nil
}

// UpsertServer writes an MCP server row keyed by namespace, inserting or
// overwriting in a single PutItem
func (ss *ServerStore) UpsertServer(ctx context.Context, server *models.McpServer) error {
	if err := ss.checkConstraints(server); err != nil {
		return err
	}

	av, err := marshalServer(server)
	if err != nil {
		return fmt.Errorf("failed to marshal MCP server: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"namespace": server.Namespace,
		"name":      server.Name,
	}).Debug("Upserting MCP server in DynamoDB")

	_, err = ss.client.DynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ss.tableName),
		Item:      av,
	})

	if err != nil {
		return fmt.Errorf("failed to upsert MCP server: %w", err)
	}

	return nil
}

// GetServerByNamespace retrieves an MCP server by its namespace key
func (ss *ServerStore) GetServerByNamespace(ctx context.Context, namespace string) (*models.McpServer, error) {
	result, err := ss.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ss.tableName),
		Key: map[string]types.AttributeValue{
			"Namespace": &types.AttributeValueMemberS{Value: namespace},
		},
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"namespace": namespace,
			"error":     err.Error(),
		}).Error("Failed to get MCP server from DynamoDB")
		return nil, fmt.Errorf("failed to get MCP server: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	return unmarshalServer(result.Item)
}

// GetServerByID retrieves an MCP server by its opaque id
func (ss *ServerStore) GetServerByID(ctx context.Context, id string) (*models.McpServer, error) {
	// Id is not the table key; filter-scan the same way the table is
	// queried for user listings
	result, err := ss.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(ss.tableName),
		FilterExpression: aws.String("Id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan MCP servers by id: %w", err)
	}

	if len(result.Items) == 0 {
		return nil, ErrNotFound
	}

	return unmarshalServer(result.Items[0])
}

// GetAllServers retrieves all MCP server rows
func (ss *ServerStore) GetAllServers(ctx context.Context) ([]*models.McpServer, error) {
	result, err := ss.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(ss.tableName),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan MCP servers: %w", err)
	}

	servers := make([]*models.McpServer, 0, len(result.Items))
	for _, item := range result.Items {
		server, err := unmarshalServer(item)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal MCP server: %w", err)
		}
		servers = append(servers, server)
	}

	return servers, nil
}

// GetServersByUserId retrieves all user-scoped servers for a profile
func (ss *ServerStore) GetServersByUserId(ctx context.Context, userId string) ([]*models.McpServer, error) {
	result, err := ss.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(ss.tableName),
		FilterExpression: aws.String("UserId = :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userId},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan MCP servers by user_id: %w", err)
	}

	servers := make([]*models.McpServer, 0, len(result.Items))
	for _, item := range result.Items {
		server, err := unmarshalServer(item)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal MCP server: %w", err)
		}
		servers = append(servers, server)
	}

	return servers, nil
}

// GetServersBySource retrieves all servers with the given provenance
func (ss *ServerStore) GetServersBySource(ctx context.Context, source string) ([]*models.McpServer, error) {
	result, err := ss.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(ss.tableName),
		FilterExpression: aws.String("#src = :source"),
		ExpressionAttributeNames: map[string]string{
			"#src": "Source",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":source": &types.AttributeValueMemberS{Value: source},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan MCP servers by source: %w", err)
	}

	servers := make([]*models.McpServer, 0, len(result.Items))
	for _, item := range result.Items {
		server, err := unmarshalServer(item)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal MCP server: %w", err)
		}
		servers = append(servers, server)
	}

	return servers, nil
}

// SetEnabled flips the enabled flag for a server. Disable is the product
// delete: rows are never removed in product flows.
func (ss *ServerStore) SetEnabled(ctx context.Context, namespace string, enabled bool) error {
	_, err := ss.client.DynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(ss.tableName),
		Key: map[string]types.AttributeValue{
			"Namespace": &types.AttributeValueMemberS{Value: namespace},
		},
		ConditionExpression: aws.String("attribute_exists(#ns)"),
		UpdateExpression:    aws.String("SET Enabled = :enabled, UpdatedAt = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#ns": "Namespace",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":enabled":    &types.AttributeValueMemberBOOL{Value: enabled},
			":updated_at": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Unix())},
		},
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update enabled flag: %w", err)
	}

	return nil
}

// UpdateTransport applies a transport/url repair to a stored row
func (ss *ServerStore) UpdateTransport(ctx context.Context, namespace, transportType, url string) error {
	if !ss.revision.AllowsTransport(transportType) {
		return fmt.Errorf("%w: transport_type %q not in revision %s", ErrConstraintViolation, transportType, ss.revision.Name)
	}

	_, err := ss.client.DynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(ss.tableName),
		Key: map[string]types.AttributeValue{
			"Namespace": &types.AttributeValueMemberS{Value: namespace},
		},
		ConditionExpression: aws.String("attribute_exists(#ns)"),
		UpdateExpression:    aws.String("SET TransportType = :transport, #url = :url, UpdatedAt = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#ns":  "Namespace",
			"#url": "URL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":transport":  &types.AttributeValueMemberS{Value: transportType},
			":url":        &types.AttributeValueMemberS{Value: url},
			":updated_at": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Unix())},
		},
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update transport: %w", err)
	}

	return nil
}

// UpdateProxy replaces a server's proxy configuration
func (ss *ServerStore) UpdateProxy(ctx context.Context, namespace string, proxy *models.ProxyConfig) error {
	proxyAV, err := attributevalue.Marshal(proxy)
	if err != nil {
		return fmt.Errorf("failed to marshal proxy config: %w", err)
	}

	_, err = ss.client.DynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(ss.tableName),
		Key: map[string]types.AttributeValue{
			"Namespace": &types.AttributeValueMemberS{Value: namespace},
		},
		ConditionExpression: aws.String("attribute_exists(#ns)"),
		UpdateExpression:    aws.String("SET Proxy = :proxy, UpdatedAt = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#ns": "Namespace",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":proxy":      proxyAV,
			":updated_at": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", time.Now().Unix())},
		},
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update proxy config: %w", err)
	}

	return nil
}

// marshalServer converts a domain server into a DynamoDB item
func marshalServer(server *models.McpServer) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(map[string]interface{}{
		"Namespace":      server.Namespace,
		"Id":             server.Id,
		"Name":           server.Name,
		"Description":    server.Description,
		"TransportType":  server.TransportType,
		"URL":            server.URL,
		"Command":        server.Command,
		"Args":           server.Args,
		"EnvVars":        server.EnvVars,
		"AuthType":       server.AuthType,
		"Token":          server.Token,
		"Scope":          server.Scope,
		"UserId":         server.UserId,
		"OrganizationId": server.OrganizationId,
		"ProjectId":      server.ProjectId,
		"Source":         server.Source,
		"Tier":           server.Tier,
		"Enabled":        server.Enabled,
		"Proxy":          server.Proxy,
		"CreatedBy":      server.CreatedBy,
		"CreatedAt":      server.CreatedAt.Unix(),
		"UpdatedAt":      server.UpdatedAt.Unix(),
	})
}

// unmarshalServer is a helper function to unmarshal a DynamoDB item to the domain model
func unmarshalServer(item map[string]types.AttributeValue) (*models.McpServer, error) {
	var temp struct {
		Namespace      string                       `dynamodbav:"Namespace"`
		Id             string                       `dynamodbav:"Id"`
		Name           string                       `dynamodbav:"Name"`
		Description    string                       `dynamodbav:"Description"`
		TransportType  string                       `dynamodbav:"TransportType"`
		URL            string                       `dynamodbav:"URL"`
		Command        string                       `dynamodbav:"Command"`
		Args           []string                     `dynamodbav:"Args"`
		EnvVars        []models.EnvironmentVariable `dynamodbav:"EnvVars"`
		AuthType       string                       `dynamodbav:"AuthType"`
		Token          string                       `dynamodbav:"Token"`
		Scope          string                       `dynamodbav:"Scope"`
		UserId         string                       `dynamodbav:"UserId"`
		OrganizationId string                       `dynamodbav:"OrganizationId"`
		ProjectId      string                       `dynamodbav:"ProjectId"`
		Source         string                       `dynamodbav:"Source"`
		Tier           string                       `dynamodbav:"Tier"`
		Enabled        bool                         `dynamodbav:"Enabled"`
		Proxy          *models.ProxyConfig          `dynamodbav:"Proxy"`
		CreatedBy      string                       `dynamodbav:"CreatedBy"`
		CreatedAt      int64                        `dynamodbav:"CreatedAt"`
		UpdatedAt      int64                        `dynamodbav:"UpdatedAt"`
	}

	err := attributevalue.UnmarshalMap(item, &temp)
	if err != nil {
		return nil, err
	}

	server := &models.McpServer{
		Namespace:      temp.Namespace,
		Id:             temp.Id,
		Name:           temp.Name,
		Description:    temp.Description,
		TransportType:  temp.TransportType,
		URL:            temp.URL,
		Command:        temp.Command,
		Args:           temp.Args,
		EnvVars:        temp.EnvVars,
		AuthType:       temp.AuthType,
		Token:          temp.Token,
		Scope:          temp.Scope,
		UserId:         temp.UserId,
		OrganizationId: temp.OrganizationId,
		ProjectId:      temp.ProjectId,
		Source:         temp.Source,
		Tier:           temp.Tier,
		Enabled:        temp.Enabled,
		Proxy:          temp.Proxy,
		CreatedBy:      temp.CreatedBy,
		CreatedAt:      time.Unix(temp.CreatedAt, 0),
		UpdatedAt:      time.Unix(temp.UpdatedAt, 0),
	}

	return server, nil
}

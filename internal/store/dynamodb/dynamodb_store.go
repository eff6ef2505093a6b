// internal/store/dynamodb/dynamodb_store.go
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/calston/taskleased/internal/leasestore"
	"github.com/calston/taskleased/internal/observability"
	"github.com/calston/taskleased/internal/store"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// StoreName is the registered name of the DynamoDB store
const StoreName = "dynamodb"

func init() {
	leasestore.Register(StoreName, newStore)
}

// newStore creates a new DynamoDB store instance from configuration
func newStore(ctx context.Context, options leasestore.Config, logger *observability.SLogger) (store.KVStore, error) {
	cfg, ok := options.(*DynamoDBConfig)
	if !ok && options != nil {
		return nil, &store.InvalidConfigurationError{Store: StoreName, Config: options}
	}
	return New(ctx, cfg, logger)
}

// dynamoDBClient defines the interface for the DynamoDB operations we use
// This allows for easier mocking in tests
type dynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store implements the store.KVStore interface for DynamoDB
type Store struct {
	client    dynamoDBClient
	tableName string
	logger    *observability.SLogger
	config    *DynamoDBConfig
}

// GetConfig returns the current store configuration
func (s *Store) GetConfig() store.StoreConfig {
	return s.config
}

// New creates a new DynamoDB store
func New(ctx context.Context, config *DynamoDBConfig, logger *observability.SLogger) (*Store, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create AWS configuration
	var clientOpts []func(*awsconfig.LoadOptions) error

	// Use custom endpoint if provided
	if len(config.Endpoints) > 0 {
		clientOpts = append(clientOpts, awsconfig.WithEndpointResolverWithOptions(
			aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{URL: config.Endpoints[0]}, nil
				},
			),
		))
	}

	// Use static credentials if provided
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		clientOpts = append(clientOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	clientOpts = append(clientOpts, awsconfig.WithRegion(config.Region))

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, clientOpts...)
	if err != nil {
		logger.Errorf("Failed to load AWS config: %v", err)
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s := &Store{
		client:    dynamodb.NewFromConfig(awsConfig),
		tableName: config.Table,
		logger:    logger,
		config:    config,
	}

	// Ensure table exists
	if err := s.ensureTableExists(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// NewWithClient creates a store around an existing client. Test use only.
func NewWithClient(client dynamoDBClient, config *DynamoDBConfig, logger *observability.SLogger) *Store {
	return &Store{
		client:    client,
		tableName: config.Table,
		logger:    logger,
		config:    config,
	}
}

// ensureTableExists checks if the DynamoDB table exists and creates it if it doesn't
func (s *Store) ensureTableExists(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})

	if err == nil {
		// Table exists
		return nil
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("PK"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("PK"),
				KeyType:       types.KeyTypeHash,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})

	if err != nil {
		s.logger.Errorf("Failed to create table: %v", err)
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// PutIfAbsent attempts to write a record at key unless an unexpired one
// exists. The conditional PutItem is the atomic check-then-set: it
// succeeds when the item is missing or its ExpiresAt is in the past.
func (s *Store) PutIfAbsent(ctx context.Context, key string, payload []byte, expiresAt time.Time) (bool, error) {
	now := time.Now()

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":        &types.AttributeValueMemberS{Value: key},
			"Payload":   &types.AttributeValueMemberB{Value: payload},
			"ExpiresAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.UnixMilli(), 10)},
		},
		ConditionExpression: aws.String(
			"attribute_not_exists(PK) OR ExpiresAt <= :now",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		s.logger.Errorf("Error writing record: %v", err)
		return false, fmt.Errorf("dynamodb conditional write: %w", err)
	}

	return true, nil
}

// Get retrieves the record at key, treating expired items as absent.
func (s *Store) Get(ctx context.Context, key string) (*store.Record, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		s.logger.Errorf("Error reading record: %v", err)
		return nil, fmt.Errorf("dynamodb read: %w", err)
	}

	if result.Item == nil {
		return nil, store.ErrKeyNotFound
	}

	rec, err := recordFromItem(key, result.Item)
	if err != nil {
		return nil, err
	}

	if rec.Expired(time.Now()) {
		return nil, store.ErrKeyNotFound
	}

	return rec, nil
}

// Delete removes any record at key, expired or not.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		s.logger.Errorf("Error deleting record: %v", err)
		return fmt.Errorf("dynamodb delete: %w", err)
	}
	return nil
}

// Close closes the DynamoDB client
func (s *Store) Close() error {
	// DynamoDB client doesn't need explicit closing
	return nil
}

func recordFromItem(key string, item map[string]types.AttributeValue) (*store.Record, error) {
	rec := &store.Record{Key: key}

	if attr, ok := item["Payload"]; ok {
		if b, ok := attr.(*types.AttributeValueMemberB); ok {
			rec.Payload = b.Value
		}
	}

	attr, ok := item["ExpiresAt"]
	if !ok {
		return nil, fmt.Errorf("dynamodb read: record %q has no expiry", key)
	}
	n, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		return nil, fmt.Errorf("dynamodb read: record %q has a non-numeric expiry", key)
	}
	millis, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("dynamodb read: record %q expiry: %w", key, err)
	}
	rec.ExpiresAt = time.UnixMilli(millis)

	return rec, nil
}

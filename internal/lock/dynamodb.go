package lock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/rzpsarthak13/orius/internal/core"
	"github.com/rzpsarthak13/orius/internal/registry"
)

// Lock items are keyed by lock_key and carry the owner token and the
// expiry in unix milliseconds. An expired item can be taken over.
const (
	acquireCondition = "attribute_not_exists(lock_key) OR expires_at < :now"
	releaseCondition = "#owner = :token"
)

// DynamoDBLocker implements core.Locker with conditional writes on a
// DynamoDB table whose partition key is the string attribute lock_key.
type DynamoDBLocker struct {
	client    *dynamodb.Client
	tableName string
	poll      time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewDynamoDBLocker loads the AWS configuration and checks that the lock
// table exists.
func NewDynamoDBLocker(cfg Config) (*DynamoDBLocker, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.TableName == "" {
		return nil, fmt.Errorf("table name is required")
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	clientOptions := []func(*dynamodb.Options){}
	if cfg.Endpoint != "" {
		// Custom endpoint (e.g., for LocalStack)
		clientOptions = append(clientOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	client := dynamodb.NewFromConfig(awsCfg, clientOptions...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(cfg.TableName),
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to DynamoDB table %s: %w", cfg.TableName, err)
	}

	log.Printf("[LOCK:DYNAMODB] Using table %s in %s", cfg.TableName, cfg.Region)
	return &DynamoDBLocker{
		client:    client,
		tableName: cfg.TableName,
		poll:      cfg.pollInterval(),
	}, nil
}

// Acquire retries the conditional put until it succeeds or ctx ends.
func (d *DynamoDBLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (core.Unlocker, error) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return nil, ErrLockerClosed
	}

	token := uuid.NewString()
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		now := time.Now()
		_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(d.tableName),
			Item: map[string]types.AttributeValue{
				"lock_key":   &types.AttributeValueMemberS{Value: key},
				"owner":      &types.AttributeValueMemberS{Value: token},
				"expires_at": &types.AttributeValueMemberN{Value: millis(now.Add(ttl))},
			},
			ConditionExpression: aws.String(acquireCondition),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":now": &types.AttributeValueMemberN{Value: millis(now)},
			},
		})
		if err == nil {
			return &dynamoLock{locker: d, key: key, token: token}, nil
		}

		var held *types.ConditionalCheckFailedException
		if !errors.As(err, &held) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close marks the locker closed. The AWS client holds no connections
// that need closing.
func (d *DynamoDBLocker) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

type dynamoLock struct {
	locker *DynamoDBLocker
	key    string
	token  string
}

func (l *dynamoLock) Release(ctx context.Context) error {
	_, err := l.locker.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.locker.tableName),
		Key: map[string]types.AttributeValue{
			"lock_key": &types.AttributeValueMemberS{Value: l.key},
		},
		ConditionExpression:      aws.String(releaseCondition),
		ExpressionAttributeNames: map[string]string{"#owner": "owner"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: l.token},
		},
	})
	if err == nil {
		return nil
	}

	var lost *types.ConditionalCheckFailedException
	if errors.As(err, &lost) {
		log.Printf("[LOCK:DYNAMODB] WARNING: Lock %s was taken over before release", l.key)
		return nil
	}
	return fmt.Errorf("failed to release lock %s: %w", l.key, err)
}

// DynamoDBLockerFactory implements the LockerFactory interface for DynamoDB.
type DynamoDBLockerFactory struct{}

// Type returns the type identifier for this factory.
func (f *DynamoDBLockerFactory) Type() string {
	return "dynamodb"
}

// Validate validates the DynamoDB-specific configuration.
func (f *DynamoDBLockerFactory) Validate(config Config) error {
	if config.Type != "dynamodb" {
		return fmt.Errorf("invalid type for DynamoDB factory: %s", config.Type)
	}
	return validateDynamoDB(config.Region, config.TableName, config.AccessKeyID, config.SecretAccessKey)
}

// Create creates a new DynamoDB locker.
func (f *DynamoDBLockerFactory) Create(config Config) (core.Locker, error) {
	locker, err := NewDynamoDBLocker(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB locker: %w", err)
	}
	return locker, nil
}

// DynamoDBConfigValidator validates auto_increment.dynamodb_config when the
// lock type is dynamodb.
type DynamoDBConfigValidator struct{}

// Type returns the type identifier for this validator.
func (v *DynamoDBConfigValidator) Type() string {
	return "lock.dynamodb"
}

// Validate validates the DynamoDB-specific configuration in the internal config.
func (v *DynamoDBConfigValidator) Validate(config *registry.InternalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	dc := config.AutoIncrement.DynamoDBConfig
	return validateDynamoDB(dc.Region, dc.TableName, dc.AccessKeyID, dc.SecretAccessKey)
}

func validateDynamoDB(region, table, accessKeyID, secretAccessKey string) error {
	if region == "" {
		return fmt.Errorf("region is required for DynamoDB")
	}
	if table == "" {
		return fmt.Errorf("table_name is required for DynamoDB")
	}
	// Both or neither
	if (accessKeyID == "") != (secretAccessKey == "") {
		return fmt.Errorf("access_key_id and secret_access_key must be set together")
	}
	return nil
}

// init auto-registers the DynamoDB factory and validator on package initialization.
func init() {
	RegisterFactory(&DynamoDBLockerFactory{})
	registry.RegisterValidator(&DynamoDBConfigValidator{})
}

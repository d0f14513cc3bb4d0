// Package dynamo is a CounterStore backed by a DynamoDB table.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"go.hackfix.me/scriptomate/sequence"
)

// DefaultTable is the default name of the counters table. Its partition key
// must be a string attribute named "pk".
const DefaultTable = "SequenceNumbers"

// DynamoDBClient defines the DynamoDB operations used by the Store.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Store keeps one item per sequence key, with a numeric Version attribute used
// for conditional writes.
type Store struct {
	client DynamoDBClient
	table  string
}

var _ sequence.CounterStore = (*Store)(nil)

// New returns a new Store using the given client and table.
func New(client DynamoDBClient, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{client: client, table: table}
}

// NewFromDefaultConfig returns a new Store configured from the environment, as
// resolved by the AWS SDK. If region is not empty, it overrides the
// configured region.
func NewFromDefaultConfig(ctx context.Context, region, table string) (*Store, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed loading AWS configuration: %w", err)
	}

	return New(dynamodb.NewFromConfig(cfg), table), nil
}

// Load implements sequence.CounterStore.
func (s *Store) Load(ctx context.Context, key string) (sequence.Counter, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		ConsistentRead: aws.Bool(true),
		Key: map[string]dbtypes.AttributeValue{
			"pk": &dbtypes.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return sequence.Counter{}, fmt.Errorf("failed getting item: %w", err)
	}
	if out.Item == nil {
		return sequence.Counter{Key: key}, nil
	}

	c := sequence.Counter{Key: key, Exists: true}
	if v, ok := out.Item["Number"].(*dbtypes.AttributeValueMemberS); ok {
		c.Number = v.Value
	}
	v, ok := out.Item["Version"].(*dbtypes.AttributeValueMemberN)
	if !ok {
		return sequence.Counter{}, fmt.Errorf("item '%s' has no numeric Version attribute", key)
	}
	c.Tag = v.Value

	return c, nil
}

// Save implements sequence.CounterStore.
func (s *Store) Save(ctx context.Context, c sequence.Counter, next string) error {
	version := int64(0)
	if c.Exists {
		var err error
		version, err = strconv.ParseInt(c.Tag, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid counter version '%s': %w", c.Tag, err)
		}
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]dbtypes.AttributeValue{
			"pk":      &dbtypes.AttributeValueMemberS{Value: c.Key},
			"Number":  &dbtypes.AttributeValueMemberS{Value: next},
			"Version": &dbtypes.AttributeValueMemberN{Value: strconv.FormatInt(version+1, 10)},
		},
	}
	if c.Exists {
		input.ConditionExpression = aws.String("Version = :v")
		input.ExpressionAttributeValues = map[string]dbtypes.AttributeValue{
			":v": &dbtypes.AttributeValueMemberN{Value: c.Tag},
		}
	} else {
		input.ConditionExpression = aws.String("attribute_not_exists(pk)")
	}

	_, err := s.client.PutItem(ctx, input)
	if err != nil {
		if isConditionFailed(err) {
			return sequence.ErrConcurrencyConflict
		}
		return fmt.Errorf("failed putting item: %w", err)
	}

	return nil
}

func isConditionFailed(err error) bool {
	var ccf *dbtypes.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

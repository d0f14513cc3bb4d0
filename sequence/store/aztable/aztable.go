// Package aztable is a CounterStore backed by Azure Table Storage.
//
// Each sequence key is stored as an entity with the key as partition key, a
// fixed row key, and a Number property. Writes are conditional on the entity
// ETag.
package aztable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"go.hackfix.me/scriptomate/sequence"
)

const (
	// DefaultTable is the default name of the counters table.
	DefaultTable = "SequenceNumbers"
	rowKey       = "1"
	numberProp   = "Number"
)

// TableClient is the subset of *aztables.Client used by the Store.
type TableClient interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
}

// Store is a CounterStore backed by an Azure table.
type Store struct {
	client TableClient
}

var _ sequence.CounterStore = (*Store)(nil)

// New returns a new Store using the given table client.
func New(client TableClient) *Store {
	return &Store{client: client}
}

// NewFromConnectionString returns a new Store for the table in the storage
// account identified by connStr.
func NewFromConnectionString(connStr, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	svcClient, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed creating table service client: %w", err)
	}

	return New(svcClient.NewClient(table)), nil
}

// EnsureTable creates the table if it doesn't exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, nil)
	if err != nil && !hasStatus(err, http.StatusConflict) {
		return fmt.Errorf("failed creating table: %w", err)
	}
	return nil
}

// Load implements sequence.CounterStore.
func (s *Store) Load(ctx context.Context, key string) (sequence.Counter, error) {
	resp, err := s.client.GetEntity(ctx, key, rowKey, nil)
	if hasStatus(err, http.StatusNotFound) {
		return sequence.Counter{Key: key}, nil
	}
	if err != nil {
		return sequence.Counter{}, fmt.Errorf("failed getting entity: %w", err)
	}

	var entity aztables.EDMEntity
	if err = json.Unmarshal(resp.Value, &entity); err != nil {
		return sequence.Counter{}, fmt.Errorf("failed unmarshalling entity: %w", err)
	}

	// A non-string value is reported as is, and rejected when parsed.
	number := fmt.Sprint(entity.Properties[numberProp])
	if str, ok := entity.Properties[numberProp].(string); ok {
		number = str
	}

	return sequence.Counter{
		Key:    key,
		Number: number,
		Tag:    string(resp.ETag),
		Exists: true,
	}, nil
}

// Save implements sequence.CounterStore.
func (s *Store) Save(ctx context.Context, c sequence.Counter, next string) error {
	entity, err := json.Marshal(aztables.EDMEntity{
		Entity:     aztables.Entity{PartitionKey: c.Key, RowKey: rowKey},
		Properties: map[string]any{numberProp: next},
	})
	if err != nil {
		return fmt.Errorf("failed marshalling entity: %w", err)
	}

	if !c.Exists {
		_, err = s.client.AddEntity(ctx, entity, nil)
		if hasStatus(err, http.StatusConflict) {
			return sequence.ErrConcurrencyConflict
		}
		if err != nil {
			return fmt.Errorf("failed adding entity: %w", err)
		}
		return nil
	}

	etag := azcore.ETag(c.Tag)
	_, err = s.client.UpdateEntity(ctx, entity, &aztables.UpdateEntityOptions{
		IfMatch:    &etag,
		UpdateMode: aztables.UpdateModeReplace,
	})
	if hasStatus(err, http.StatusPreconditionFailed) {
		return sequence.ErrConcurrencyConflict
	}
	if err != nil {
		return fmt.Errorf("failed updating entity: %w", err)
	}

	return nil
}

func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == status
}

package aztable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/scriptomate/sequence"
)

type fakeEntity struct {
	value []byte
	etag  int
}

// fakeTable mimics the conditional write semantics of Azure Table Storage.
type fakeTable struct {
	mx       sync.Mutex
	created  bool
	entities map[string]fakeEntity
}

var _ TableClient = (*fakeTable)(nil)

func newFakeTable() *fakeTable {
	return &fakeTable{entities: map[string]fakeEntity{}}
}

func respErr(status int, code string) error {
	return &azcore.ResponseError{
		ErrorCode:  code,
		StatusCode: status,
		RawResponse: &http.Response{
			StatusCode: status,
			Request:    httptest.NewRequest(http.MethodGet, "https://acct.table.core.windows.net/SequenceNumbers", nil),
			Body:       http.NoBody,
		},
	}
}

func (f *fakeTable) CreateTable(context.Context, *aztables.CreateTableOptions) (aztables.CreateTableResponse, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	if f.created {
		return aztables.CreateTableResponse{}, respErr(http.StatusConflict, "TableAlreadyExists")
	}
	f.created = true
	return aztables.CreateTableResponse{}, nil
}

func (f *fakeTable) GetEntity(_ context.Context, pk, rk string, _ *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	e, ok := f.entities[pk+"/"+rk]
	if !ok {
		return aztables.GetEntityResponse{}, respErr(http.StatusNotFound, "ResourceNotFound")
	}
	return aztables.GetEntityResponse{
		ETag:  azcore.ETag(fmt.Sprintf("W/\"%d\"", e.etag)),
		Value: e.value,
	}, nil
}

func entityKey(data []byte) (string, error) {
	var e aztables.EDMEntity
	if err := json.Unmarshal(data, &e); err != nil {
		return "", err
	}
	return e.PartitionKey + "/" + e.RowKey, nil
}

func (f *fakeTable) AddEntity(_ context.Context, entity []byte, _ *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	k, err := entityKey(entity)
	if err != nil {
		return aztables.AddEntityResponse{}, err
	}
	if _, ok := f.entities[k]; ok {
		return aztables.AddEntityResponse{}, respErr(http.StatusConflict, "EntityAlreadyExists")
	}
	f.entities[k] = fakeEntity{value: entity, etag: 1}
	return aztables.AddEntityResponse{}, nil
}

func (f *fakeTable) UpdateEntity(_ context.Context, entity []byte, opts *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error) {
	f.mx.Lock()
	defer f.mx.Unlock()
	k, err := entityKey(entity)
	if err != nil {
		return aztables.UpdateEntityResponse{}, err
	}
	cur, ok := f.entities[k]
	if !ok {
		return aztables.UpdateEntityResponse{}, respErr(http.StatusNotFound, "ResourceNotFound")
	}
	if opts == nil || opts.IfMatch == nil || string(*opts.IfMatch) != fmt.Sprintf("W/\"%d\"", cur.etag) {
		return aztables.UpdateEntityResponse{}, respErr(http.StatusPreconditionFailed, "UpdateConditionNotSatisfied")
	}
	f.entities[k] = fakeEntity{value: entity, etag: cur.etag + 1}
	return aztables.UpdateEntityResponse{}, nil
}

func TestStoreLoadSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(newFakeTable())
	require.NoError(t, s.EnsureTable(ctx))
	require.NoError(t, s.EnsureTable(ctx), "existing table is fine")

	c, err := s.Load(ctx, "db1")
	require.NoError(t, err)
	assert.False(t, c.Exists)

	require.NoError(t, s.Save(ctx, c, "00001"))
	assert.ErrorIs(t, s.Save(ctx, c, "00001"), sequence.ErrConcurrencyConflict)

	c, err = s.Load(ctx, "db1")
	require.NoError(t, err)
	assert.True(t, c.Exists)
	assert.Equal(t, "00001", c.Number)
	assert.Equal(t, `W/"1"`, c.Tag)

	require.NoError(t, s.Save(ctx, c, "00002"))
	assert.ErrorIs(t, s.Save(ctx, c, "00003"), sequence.ErrConcurrencyConflict)
}

func TestStoreWithAllocator(t *testing.T) {
	t.Parallel()

	s := New(newFakeTable())
	a, err := sequence.NewAllocator(sequence.WithStore(s))
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		num, err := a.NextNumber(context.Background(), "db1", sequence.ModeTableStorage)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%05d", i), num)
	}
}

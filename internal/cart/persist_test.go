package cart

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePersisterRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersister(filepath.Join(dir, "carts"))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.Load(ctx, StorageKey("s1"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.Save(ctx, StorageKey("s1"), []byte(`{"a":1}`)))
	require.NoError(t, p.Save(ctx, StorageKey("s1"), []byte(`{"a":2}`)))

	data, err := p.Load(ctx, StorageKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "carts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFilePersisterBacksStore(t *testing.T) {
	p, err := NewFilePersister(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	s, err := Open(ctx, p, StorageKey("s"))
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, item("p1", "", "3.50", 2)))

	reopened, err := Open(ctx, p, StorageKey("s"))
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.TotalItems())
}

// fakeDynamo keeps items keyed by storage_key.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	table string
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table = aws.ToString(in.TableName)
	key := in.Key["storage_key"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[key]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table = aws.ToString(in.TableName)
	key := in.Item["storage_key"].(*types.AttributeValueMemberS).Value
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoPersisterBacksStore(t *testing.T) {
	fake := &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
	p := NewDynamoPersister(fake, "carts")
	ctx := context.Background()

	_, err := p.Load(ctx, StorageKey("s"))
	assert.ErrorIs(t, err, ErrNotFound)

	s, err := Open(ctx, p, StorageKey("s"))
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, item("p1", "L", "10", 1)))
	assert.Equal(t, "carts", fake.table)

	stored := fake.items[StorageKey("s")]
	require.Contains(t, stored, "payload")
	require.Contains(t, stored, "updated_at")

	reopened, err := Open(ctx, p, StorageKey("s"))
	require.NoError(t, err)
	require.Len(t, reopened.Items(), 1)
	assert.Equal(t, "L", reopened.Items()[0].Size)
}

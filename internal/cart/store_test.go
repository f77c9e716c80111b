package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id, size, price string, qty int) models.CartItem {
	return models.CartItem{
		ProductID: id,
		Name:      "Product " + id,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
		Size:      size,
	}
}

func openEmpty(t *testing.T) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister()
	s, err := Open(context.Background(), p, StorageKey("test"))
	require.NoError(t, err)
	return s, p
}

func TestAddItemMergesOnProductAndSize(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()

	rng := rand.New(rand.NewSource(7))
	keys := []struct{ id, size string }{{"p1", ""}, {"p1", "M"}, {"p2", "M"}, {"p3", "L"}}
	want := map[[2]string]int{}
	for i := 0; i < 200; i++ {
		k := keys[rng.Intn(len(keys))]
		q := rng.Intn(4) + 1
		require.NoError(t, s.AddItem(ctx, item(k.id, k.size, "1.00", q)))
		want[[2]string{k.id, k.size}] += q
	}

	items := s.Items()
	got := map[[2]string]int{}
	for _, it := range items {
		key := [2]string{it.ProductID, it.Size}
		_, dup := got[key]
		assert.False(t, dup, "duplicate line %v", key)
		got[key] = it.Quantity
	}
	assert.Equal(t, want, got)
}

func TestAddItemKeepsInsertionOrder(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, item("b", "", "1", 1)))
	require.NoError(t, s.AddItem(ctx, item("a", "", "1", 1)))
	require.NoError(t, s.AddItem(ctx, item("b", "", "1", 1)))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "a", items[1].ProductID)
}

func TestTotalPriceIsSumOfLines(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, item("p1", "S", "19.99", 3)))
	require.NoError(t, s.AddItem(ctx, item("p2", "", "0.10", 7)))
	require.NoError(t, s.UpdateQuantity(ctx, "p2", 2))
	require.NoError(t, s.AddItem(ctx, item("p1", "S", "19.99", 1)))

	var want decimal.Decimal
	for _, it := range s.Items() {
		want = want.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, want.Equal(s.TotalPrice()))
	assert.True(t, decimal.RequireFromString("80.16").Equal(s.TotalPrice()), s.TotalPrice().String())
	assert.Equal(t, 6, s.TotalItems())
}

func TestRemoveItemDropsEverySize(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, item("p1", "S", "5", 1)))
	require.NoError(t, s.AddItem(ctx, item("p1", "M", "5", 1)))
	require.NoError(t, s.AddItem(ctx, item("p2", "M", "5", 1)))

	require.NoError(t, s.RemoveItem(ctx, "p1"))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ProductID)
}

func TestUpdateQuantityAppliesToEveryLineOfProduct(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, item("p1", "S", "5", 1)))
	require.NoError(t, s.AddItem(ctx, item("p1", "M", "5", 4)))

	require.NoError(t, s.UpdateQuantity(ctx, "p1", 3))
	for _, it := range s.Items() {
		assert.Equal(t, 3, it.Quantity)
	}

	// No validation at this layer.
	require.NoError(t, s.UpdateQuantity(ctx, "p1", 0))
	assert.Equal(t, 0, s.TotalItems())
	assert.Len(t, s.Items(), 2)
}

func TestClearEmptiesCart(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, item("p1", "", "12.5", 2)))

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.TotalItems())
	assert.True(t, s.TotalPrice().IsZero())

	// Clearing an empty cart is fine too.
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.TotalItems())
	assert.True(t, s.TotalPrice().IsZero())
}

func TestEveryMutationPersistsAndRehydrates(t *testing.T) {
	s, p := openEmpty(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, item("p1", "M", "20.00", 2)))

	data, err := p.Load(ctx, StorageKey("test"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"state":{"items":[{"productId":"p1","name":"Product p1","price":20,"quantity":2,"size":"M","image":""}]},"version":0}`,
		string(data))

	reopened, err := Open(ctx, p, StorageKey("test"))
	require.NoError(t, err)
	assert.Equal(t, s.Items()[0].ProductID, reopened.Items()[0].ProductID)
	assert.True(t, s.TotalPrice().Equal(reopened.TotalPrice()))

	require.NoError(t, reopened.Clear(ctx))
	data, err = p.Load(ctx, StorageKey("test"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"items":[]},"version":0}`, string(data))
}

func TestOpenReadsStoredFormat(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()
	raw := `{"state":{"items":[{"productId":"p9","name":"Tee","price":"15.5","quantity":1,"image":"/tee.png"}]},"version":0}`
	require.NoError(t, p.Save(ctx, StorageKey("s"), []byte(raw)))

	s, err := Open(ctx, p, StorageKey("s"))
	require.NoError(t, err)
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "/tee.png", s.Items()[0].Image)
	assert.True(t, decimal.RequireFromString("15.5").Equal(s.TotalPrice()))
}

func TestOpenRejectsCorruptPayloadWithoutDiscarding(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()
	require.NoError(t, p.Save(ctx, StorageKey("s"), []byte(`{"state":`)))

	_, err := Open(ctx, p, StorageKey("s"))
	require.Error(t, err)

	data, err := p.Load(ctx, StorageKey("s"))
	require.NoError(t, err)
	assert.Equal(t, `{"state":`, string(data))
}

func TestDecodeRejectsNewerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"state":{"items":[]},"version":3}`))
	assert.Error(t, err)
}

type failingPersister struct {
	*MemoryPersister
	err error
}

func (f *failingPersister) Save(context.Context, string, []byte) error { return f.err }

func TestFailedSaveLeavesCartUnchanged(t *testing.T) {
	boom := errors.New("disk full")
	p := &failingPersister{MemoryPersister: NewMemoryPersister(), err: boom}
	s, err := Open(context.Background(), p, StorageKey("s"))
	require.NoError(t, err)

	err = s.AddItem(context.Background(), item("p1", "", "1", 1))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Items())
}

func TestConcurrentAdds(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddItem(ctx, item("p1", "M", "2", 1))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.TotalItems())
	assert.Len(t, s.Items(), 1)
}

func TestManagersSharingPersisterKeepEachOthersWrites(t *testing.T) {
	shared := NewMemoryPersister()
	a, b := NewManager(shared), NewManager(shared)
	ctx := context.Background()

	inA, err := a.Open(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "cart-storage:s", inA.Key())

	inB, err := b.Open(ctx, "s")
	require.NoError(t, err)
	require.NoError(t, inB.AddItem(ctx, item("p1", "", "1", 1)))

	// a fresh open in A sees B's line
	again, err := a.Open(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, again.Items(), 1)

	// and a store opened before B wrote does not overwrite it
	require.NoError(t, inA.AddItem(ctx, item("p2", "", "1", 1)))
	assert.Len(t, inA.Items(), 2)

	stored, err := Open(ctx, shared, StorageKey("s"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, productIDs(stored.Items()))
}

func TestSubtractKeepsLinesAddedLater(t *testing.T) {
	s, _ := openEmpty(t)
	ctx := context.Background()
	require.NoError(t, s.AddItem(ctx, item("p1", "M", "10", 2)))
	snapshot := s.Items()

	require.NoError(t, s.AddItem(ctx, item("p1", "M", "10", 1)))
	require.NoError(t, s.AddItem(ctx, item("p2", "", "5", 1)))

	require.NoError(t, s.Subtract(ctx, snapshot))
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "p2", items[1].ProductID)

	require.NoError(t, s.Subtract(ctx, s.Items()))
	assert.Empty(t, s.Items())
}

func productIDs(items []models.CartItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ProductID
	}
	return out
}

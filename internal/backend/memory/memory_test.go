package memory

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New(backend.StorefrontSchema())
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"Tee", "Hoodie", "Cap"} {
		require.NoError(t, s.Seed(backend.TableProducts, backend.Row{
			"id":         name,
			"name":       name,
			"price":      "10.00",
			"stock":      5,
			"is_active":  name != "Cap",
			"created_at": base.Add(time.Duration(i) * time.Hour),
		}))
	}
	return s
}

func TestSelectFiltersOrdersAndRanges(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	rows, err := backend.From(s, backend.TableProducts).
		Eq("is_active", true).
		Order("created_at", false).
		Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Hoodie", rows[0].String("id"))
	assert.Equal(t, "Tee", rows[1].String("id"))

	page, err := backend.From(s, backend.TableProducts).Order("created_at", true).Range(1, 1).Rows(ctx)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Hoodie", page[0].String("id"))
}

func TestSelectProjectsColumns(t *testing.T) {
	s := seeded(t)
	row, err := backend.From(s, backend.TableProducts).Select("name").Eq("id", "Tee").Single(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backend.Row{"name": "Tee"}, row)
}

func TestSingleNotFound(t *testing.T) {
	s := seeded(t)
	_, err := backend.From(s, backend.TableProducts).Eq("id", "nope").Single(context.Background())
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestInsertFillsDefaultsAndRejectsDuplicates(t *testing.T) {
	s := New(backend.StorefrontSchema())
	ctx := context.Background()

	rows, err := backend.From(s, backend.TableOrders).Insert(ctx, backend.Row{
		"user_id":      "u1",
		"total_amount": 42.5,
		"status":       "pending",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0].String("id"))
	assert.False(t, rows[0].Time("created_at").IsZero())
	assert.True(t, decimal.RequireFromString("42.5").Equal(rows[0].Decimal("total_amount")))

	_, err = backend.From(s, backend.TableOrders).Insert(ctx, backend.Row{"id": rows[0].String("id")})
	var be *backend.Error
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 409, be.Status)
}

func TestUpdateDeleteCount(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	n, err := backend.From(s, backend.TableProducts).Eq("id", "Cap").Update(ctx, backend.Row{"is_active": true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err := backend.From(s, backend.TableProducts).Eq("is_active", true).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, active)

	n, err = backend.From(s, backend.TableProducts).Eq("id", "Tee").Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := backend.From(s, backend.TableProducts).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestUnknownColumnRejected(t *testing.T) {
	s := seeded(t)
	_, err := backend.From(s, backend.TableProducts).Eq("colour", "red").Rows(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnknownColumn)
}

func TestReturnedRowsAreCopies(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	row, err := backend.From(s, backend.TableProducts).Eq("id", "Tee").Single(ctx)
	require.NoError(t, err)
	row["name"] = "changed"

	again, err := backend.From(s, backend.TableProducts).Eq("id", "Tee").Single(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tee", again.String("name"))
}

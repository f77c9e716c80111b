package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/backend/memory"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateway(t *testing.T) (*Gateway, *memory.Store) {
	t.Helper()
	db := memory.New(backend.StorefrontSchema())
	tokens, err := auth.NewTokens("test", time.Hour)
	require.NoError(t, err)
	return New(backend.Client{DB: db, Auth: auth.NewLocal(db, tokens)}), db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// failOn wraps an executor and fails every query on one table.
type failOn struct {
	backend.Executor
	table string
	op    backend.Op
	err   error
}

func (f failOn) Execute(ctx context.Context, q backend.Query) (backend.Result, error) {
	if q.Table == f.table && q.Op == f.op {
		return backend.Result{}, f.err
	}
	return f.Executor.Execute(ctx, q)
}

// shapeExec answers order inserts with a fixed set of rows.
type shapeExec struct {
	rows []backend.Row
}

func (s shapeExec) Execute(context.Context, backend.Query) (backend.Result, error) {
	return backend.Result{Rows: s.rows}, nil
}

func TestSignUpCreatesProfile(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	s, err := g.SignUp(ctx, "ada@example.com", "hunter22", "Ada")
	require.NoError(t, err)

	p, err := g.UserProfile(ctx, s.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FullName)
	assert.False(t, p.IsAdmin)

	u, err := g.CurrentUser(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, u.ID)
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()
	user := backend.User{ID: "u-oauth", Email: "o@example.com", FullName: "Oauth"}

	p1, err := g.EnsureProfile(ctx, user)
	require.NoError(t, err)
	p2, err := g.EnsureProfile(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)

	n, err := backend.From(db, backend.TableUserProfiles).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIsAdmin(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()
	require.NoError(t, db.Seed(backend.TableUserProfiles,
		backend.Row{"id": "admin", "email": "a@x", "is_admin": true},
		backend.Row{"id": "shopper", "email": "s@x", "is_admin": false},
	))

	ok, err := g.IsAdmin(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.IsAdmin(ctx, "shopper")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.IsAdmin(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductsActiveNewestFirstPaged(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, db.Seed(backend.TableProducts, backend.Row{
			"id": id, "name": id, "price": 1, "stock": 1,
			"is_active":  id != "c",
			"created_at": base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := g.Products(ctx, 0, 0)
	require.NoError(t, err)
	ids := func(ps []models.Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}
	assert.Equal(t, []string{"d", "b", "a"}, ids(all))

	page, err := g.Products(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(page))

	everything, err := g.AllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, everything, 4)
}

func TestCreateAndUpdateProduct(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	p, err := g.CreateProduct(ctx, models.ProductInput{
		Name:  "Summer Linen Shirt",
		Price: dec("49.90"),
		Sizes: []string{"S", "M"},
		Stock: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "summer-linen-shirt", p.Slug)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{}, p.Colors)

	price := dec("39.90")
	name := "Winter Linen Shirt"
	updated, err := g.UpdateProduct(ctx, p.ID, models.ProductUpdate{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "winter-linen-shirt", updated.Slug)
	assert.True(t, price.Equal(updated.Price))
	// Untouched fields keep their values.
	assert.Equal(t, []string{"S", "M"}, updated.Sizes)
	assert.Equal(t, 10, updated.Stock)
	require.NotNil(t, updated.UpdatedAt)

	_, err = g.UpdateProduct(ctx, "missing", models.ProductUpdate{Name: &name})
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestCreateProductValidates(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	_, err := g.CreateProduct(ctx, models.ProductInput{Name: "x", Price: dec("-1")})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = g.CreateProduct(ctx, models.ProductInput{Price: dec("1")})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = g.CreateProduct(ctx, models.ProductInput{Name: "x", Stock: -2})
	assert.ErrorIs(t, err, ErrInvalidStock)
}

func TestDeleteProduct(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()
	p, err := g.CreateProduct(ctx, models.ProductInput{Name: "Cap", Price: dec("5")})
	require.NoError(t, err)

	require.NoError(t, g.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, g.DeleteProduct(ctx, p.ID), backend.ErrNotFound)
}

func TestOrderLifecycle(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	o, err := g.CreateOrder(ctx, models.NewOrder{UserID: "u1", CustomerName: "Ada", TotalAmount: dec("40.00")})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, models.PaymentCashOnDelivery, o.PaymentMethod)

	items, err := g.CreateOrderItems(ctx, []models.OrderItem{
		{OrderID: o.ID, ProductID: "p1", Quantity: 2, Price: dec("20.00"), Size: "M"},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)

	stored, err := g.OrderItems(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "M", stored[0].Size)

	mine, err := g.OrdersByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	shipped, err := g.UpdateOrderStatus(ctx, o.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, shipped.Status)
	require.NotNil(t, shipped.UpdatedAt)

	_, err = g.UpdateOrderStatus(ctx, o.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCreateOrderNormalizesResponseShape(t *testing.T) {
	cases := []struct {
		name string
		rows []backend.Row
		id   string
		err  error
	}{
		{name: "single record", rows: []backend.Row{{"id": "o1"}}, id: "o1"},
		{name: "array with id later", rows: []backend.Row{{}, {"id": "o2"}}, id: "o2"},
		{name: "empty response", rows: nil, err: ErrNoOrderID},
		{name: "record without id", rows: []backend.Row{{"status": "pending"}}, err: ErrNoOrderID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(backend.Client{DB: shapeExec{rows: tc.rows}})
			o, err := g.CreateOrder(context.Background(), models.NewOrder{UserID: "u"})
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.id, o.ID)
		})
	}
}

func TestStatsRevenueCountsDeliveredOnly(t *testing.T) {
	g, db := newGateway(t)
	ctx := context.Background()
	for _, amt := range []string{"10", "15", "25"} {
		require.NoError(t, db.Seed(backend.TableOrders, backend.Row{"status": "delivered", "total_amount": amt}))
	}
	for _, st := range []string{"pending", "processing", "shipped"} {
		require.NoError(t, db.Seed(backend.TableOrders, backend.Row{"status": st, "total_amount": "1000"}))
	}
	require.NoError(t, db.Seed(backend.TableProducts, backend.Row{"name": "x", "price": 1, "stock": 1, "is_active": true}))
	require.NoError(t, db.Seed(backend.TableUserProfiles, backend.Row{"email": "a@x", "is_admin": false}))

	s, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(s.TotalRevenue), "revenue %s", s.TotalRevenue)
	assert.Equal(t, 6, s.TotalOrders)
	assert.Equal(t, 1, s.TotalProducts)
	assert.Equal(t, 1, s.TotalCustomers)
}

func TestStatsFailsWhenAnyCountFails(t *testing.T) {
	_, db := newGateway(t)
	boom := errors.New("boom")
	g := New(backend.Client{DB: failOn{Executor: db, table: backend.TableProducts, op: backend.OpCount, err: boom}})

	_, err := g.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestBackendErrorsSurfaceUnchanged(t *testing.T) {
	_, db := newGateway(t)
	want := &backend.Error{Status: 503, Message: "down"}
	g := New(backend.Client{DB: failOn{Executor: db, table: backend.TableOrders, op: backend.OpSelect, err: want}})

	_, err := g.AllOrders(context.Background())
	assert.Same(t, want, err)
}

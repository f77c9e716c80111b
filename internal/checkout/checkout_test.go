package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/backend/memory"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/gateway"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// flakyItems fails order_items inserts while failing is set.
type flakyItems struct {
	backend.Executor
	failing bool
}

func (f *flakyItems) Execute(ctx context.Context, q backend.Query) (backend.Result, error) {
	if f.failing && q.Table == backend.TableOrderItems && q.Op == backend.OpInsert {
		return backend.Result{}, &backend.Error{Status: 500, Message: "items table unavailable"}
	}
	return f.Executor.Execute(ctx, q)
}

// failOrders rejects every order insert.
type failOrders struct {
	backend.Executor
}

func (f failOrders) Execute(ctx context.Context, q backend.Query) (backend.Result, error) {
	if q.Table == backend.TableOrders && q.Op == backend.OpInsert {
		return backend.Result{}, errors.New("connection reset")
	}
	return f.Executor.Execute(ctx, q)
}

// addDuringOrder adds a line to the cart while the order is created,
// as a second request of the same session would.
type addDuringOrder struct {
	OrderWriter
	store *cart.Store
	line  models.CartItem
}

func (a addDuringOrder) CreateOrder(ctx context.Context, in models.NewOrder) (models.Order, error) {
	if err := a.store.AddItem(ctx, a.line); err != nil {
		return models.Order{}, err
	}
	return a.OrderWriter.CreateOrder(ctx, in)
}

type CheckoutSuite struct {
	suite.Suite
	ctx   context.Context
	db    *memory.Store
	exec  *flakyItems
	gw    *gateway.Gateway
	flow  *Workflow
	store *cart.Store
	form  ShippingForm
}

func (s *CheckoutSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = memory.New(backend.StorefrontSchema())
	s.exec = &flakyItems{Executor: s.db}
	tokens, err := auth.NewTokens("test", time.Hour)
	s.Require().NoError(err)
	s.gw = gateway.New(backend.Client{DB: s.exec, Auth: auth.NewLocal(s.db, tokens)})
	s.flow = New(s.gw, quiet)

	s.store, err = cart.Open(s.ctx, cart.NewMemoryPersister(), cart.StorageKey("session"))
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddItem(s.ctx, models.CartItem{
		ProductID: "p1",
		Name:      "Tee",
		Price:     decimal.RequireFromString("20.00"),
		Quantity:  2,
	}))

	s.form = ShippingForm{
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		CustomerPhone: "+44 20 0000 0000",
		Address:       "12 Analytical St",
		City:          "London",
		ZipCode:       "N1 1AA",
	}
}

func (s *CheckoutSuite) count(table string) int {
	n, err := backend.From(s.db, table).Count(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *CheckoutSuite) TestSuccessfulCheckout() {
	res, err := s.flow.Submit(s.ctx, "user-1", s.form, s.store)
	s.Require().NoError(err)

	s.Equal(StateSuccess, res.State)
	s.Equal([]State{StateIdle, StateValidating, StateCreatingOrder, StateCreatingItems, StateSuccess}, res.Trail)
	s.Require().NotNil(res.Order)
	s.Equal(ConfirmationPath+res.Order.ID, res.Redirect)

	order, err := s.gw.Order(s.ctx, res.Order.ID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("40.00").Equal(order.TotalAmount))
	s.Equal(models.OrderStatusPending, order.Status)
	s.Equal(models.PaymentCashOnDelivery, order.PaymentMethod)
	s.Equal("user-1", order.UserID)

	items, err := s.gw.OrderItems(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(2, items[0].Quantity)
	s.True(decimal.RequireFromString("20.00").Equal(items[0].Price))

	s.Empty(s.store.Items())
	s.Equal(0, s.count(backend.TablePendingOrderItems))
}

func (s *CheckoutSuite) TestAnonymousUserIsSentToLogin() {
	res, err := s.flow.Submit(s.ctx, "", s.form, s.store)

	s.ErrorIs(err, ErrAuthRequired)
	s.Equal(LoginPath, res.Redirect)
	s.Equal(0, s.count(backend.TableOrders))
	s.Equal(2, s.store.TotalItems())
}

func (s *CheckoutSuite) TestMissingFieldFailsValidation() {
	s.form.City = "  "
	res, err := s.flow.Submit(s.ctx, "user-1", s.form, s.store)

	var verr *ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"city"}, verr.Missing)
	s.Equal(StateFailed, res.State)
	s.Equal([]State{StateIdle, StateValidating, StateFailed}, res.Trail)
	s.Equal(0, s.count(backend.TableOrders))
	s.Equal(2, s.store.TotalItems())
}

func (s *CheckoutSuite) TestEmptyCartFailsValidation() {
	s.Require().NoError(s.store.Clear(s.ctx))
	_, err := s.flow.Submit(s.ctx, "user-1", s.form, s.store)

	s.ErrorIs(err, ErrEmptyCart)
	var verr *ValidationError
	s.ErrorAs(err, &verr)
	s.Equal(0, s.count(backend.TableOrders))
}

func (s *CheckoutSuite) TestOrderFailureStopsCheckout() {
	flow := New(gateway.New(backend.Client{DB: failOrders{Executor: s.db}}), quiet)
	res, err := flow.Submit(s.ctx, "user-1", s.form, s.store)

	s.Error(err)
	s.Equal(StateFailed, res.State)
	s.Equal([]State{StateIdle, StateValidating, StateCreatingOrder, StateFailed}, res.Trail)
	s.Nil(res.Order)
	s.Equal(2, s.store.TotalItems())
}

func (s *CheckoutSuite) TestItemsFailureIsSwallowedAndQueued() {
	s.exec.failing = true
	res, err := s.flow.Submit(s.ctx, "user-1", s.form, s.store)
	s.Require().NoError(err)

	s.Equal(StateSuccess, res.State)
	s.True(res.ItemsQueued)
	s.Empty(s.store.Items())

	order, err := s.gw.Order(s.ctx, res.Order.ID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("40").Equal(order.TotalAmount))
	s.Equal(0, s.count(backend.TableOrderItems))

	pending, err := s.gw.ListPendingItems(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(order.ID, pending[0].OrderID)
	s.Contains(pending[0].LastError, "items table unavailable")

	// Once the table is back the reconciler writes the items.
	s.exec.failing = false
	rep, err := NewReconciler(s.gw, 3, quiet).RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(RunReport{Written: 1}, rep)

	items, err := s.gw.OrderItems(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Len(items, 1)
	s.Equal(0, s.count(backend.TablePendingOrderItems))
}

func (s *CheckoutSuite) TestReconcilerStopsAtMaxAttempts() {
	s.exec.failing = true
	_, err := s.flow.Submit(s.ctx, "user-1", s.form, s.store)
	s.Require().NoError(err)

	r := NewReconciler(s.gw, 2, quiet)
	for i := 0; i < 2; i++ {
		rep, err := r.RunOnce(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, rep.Failed)
	}
	rep, err := r.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(RunReport{Skipped: 1}, rep)

	pending, err := s.gw.ListPendingItems(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(2, pending[0].Attempts)
}

func (s *CheckoutSuite) TestDuplicateSubmitCreatesTwoOrders() {
	_, err := s.flow.Submit(s.ctx, "user-1", s.form, s.store)
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddItem(s.ctx, models.CartItem{ProductID: "p1", Price: decimal.NewFromInt(20), Quantity: 2}))
	_, err = s.flow.Submit(s.ctx, "user-1", s.form, s.store)
	s.Require().NoError(err)

	s.Equal(2, s.count(backend.TableOrders))
}

func (s *CheckoutSuite) TestLineAddedDuringCheckoutIsKept() {
	late := models.CartItem{ProductID: "p2", Name: "Cap", Price: decimal.NewFromInt(5), Quantity: 1}
	flow := New(addDuringOrder{OrderWriter: s.gw, store: s.store, line: late}, quiet)

	res, err := flow.Submit(s.ctx, "user-1", s.form, s.store)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("40").Equal(res.Total))

	left := s.store.Items()
	s.Require().Len(left, 1)
	s.Equal("p2", left[0].ProductID)

	items, err := s.gw.OrderItems(s.ctx, res.Order.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("p1", items[0].ProductID)
}

func TestCheckoutSuite(t *testing.T) {
	suite.Run(t, new(CheckoutSuite))
}

package shop

import (
	"context"
	"testing"

	"github.com/kalambet/shopbot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func TestCatalogSearch(t *testing.T) {
	c := NewCatalog(openStore(t))
	ctx := context.Background()

	res, err := c.Search(ctx, SearchQuery{Category: "laptop", Brand: "Lenovo"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, DefaultPageSize, res.PageSize)

	res, err = c.Search(ctx, SearchQuery{Category: "laptops", Page: 2, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, res.PageSize)
	assert.Empty(t, res.Items)

	res, err = c.Search(ctx, SearchQuery{Brand: "Dell", MaxPrice: ptr(500.0), Category: "laptops"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.NotNil(t, res.Items)

	_, err = c.Search(ctx, SearchQuery{MinPrice: ptr(900.0), MaxPrice: ptr(100.0)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogSearch_QueryDropped(t *testing.T) {
	c := NewCatalog(openStore(t))
	res, err := c.Search(context.Background(), SearchQuery{Query: "featherweight", Category: "displays"})
	require.NoError(t, err)
	assert.True(t, res.QueryDropped)
	assert.Equal(t, 3, res.Total)
}

func TestOrders_CreateAndCancel(t *testing.T) {
	store := openStore(t)
	orders := NewOrders(store)
	catalog := NewCatalog(store)
	ctx := context.Background()

	addr := &Address{Street: "12 Main St", City: "Austin", State: "TX", Zip: "73301", Country: "USA"}
	o, err := orders.CreateOrder(ctx, 1, []LineItem{{ProductID: 10012, Quantity: 2}}, addr, "leave at the door")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.InDelta(t, 898.0, o.Total, 0.001)
	require.NotNil(t, o.ShippingAddress)
	assert.Equal(t, "Austin", o.ShippingAddress.City)

	p, err := catalog.Get(ctx, 10012)
	require.NoError(t, err)
	assert.Equal(t, 29, p.Stock)

	got, err := orders.OrderStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "leave at the door", got.Notes)

	_, err = orders.CancelOrder(ctx, 2, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound, "someone else's order")

	cancelled, err := orders.CancelOrder(ctx, 1, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	p, err = catalog.Get(ctx, 10012)
	require.NoError(t, err)
	assert.Equal(t, 31, p.Stock, "stock restored on cancel")

	_, err = orders.CancelOrder(ctx, 1, o.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrders_InsufficientStock(t *testing.T) {
	orders := NewOrders(openStore(t))
	_, err := orders.CreateOrder(context.Background(), 1, []LineItem{{ProductID: 10042, Quantity: 4}}, nil, "")
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "ASUS ROG Strix G16")
	assert.Contains(t, err.Error(), "available 3")
}

func TestOrders_Validation(t *testing.T) {
	orders := NewOrders(openStore(t))
	ctx := context.Background()

	_, err := orders.CreateOrder(ctx, 1, nil, nil, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = orders.CreateOrder(ctx, 1, []LineItem{{ProductID: 55555, Quantity: 1}}, nil, "")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = orders.OrderStatus(ctx, 4521)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrders_StatusWorkflow(t *testing.T) {
	orders := NewOrders(openStore(t))
	ctx := context.Background()
	o, err := orders.CreateOrder(ctx, 1, []LineItem{{ProductID: 30001, Quantity: 1}}, nil, "")
	require.NoError(t, err)

	for _, next := range []OrderStatus{StatusConfirmed, StatusProcessing, StatusShipped} {
		o, err = orders.UpdateStatus(ctx, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, o.Status)
	}
	_, err = orders.UpdateStatus(ctx, o.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition, "shipped orders cannot be cancelled")
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))
	assert.False(t, CanTransition(StatusShipped, StatusCancelled))
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
}

func TestAccounts(t *testing.T) {
	store := openStore(t)
	accounts := NewAccounts(store)
	accounts.cost = bcrypt.MinCost
	ctx := context.Background()

	other, err := accounts.CreateUser(ctx, "Other", "other@example.com", "correct horse")
	require.NoError(t, err)

	_, err = accounts.CreateUser(ctx, "Dup", "other@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = accounts.UpdateUser(ctx, 1, UserUpdate{Email: ptr(other.Email)})
	require.ErrorIs(t, err, ErrEmailTaken)
	assert.Contains(t, err.Error(), "other@example.com")

	u, err := accounts.UpdateUser(ctx, 1, UserUpdate{Name: ptr("Jane Doe"), Email: ptr("jane@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.Name)
	assert.Equal(t, "jane@example.com", u.Email)

	_, err = accounts.UpdateUser(ctx, 1, UserUpdate{Email: ptr("not-an-email")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = accounts.UpdateUser(ctx, 1, UserUpdate{Password: ptr("short")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = accounts.UpdateUser(ctx, 1, UserUpdate{Password: ptr("s3cretpassword")})
	require.NoError(t, err)
	row, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpassword", row.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte("s3cretpassword")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte("wrong")))

	_, err = accounts.GetUser(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddressString(t *testing.T) {
	a := Address{Street: "5 Market Street", City: "San Francisco", State: "CA", Zip: "00000", Country: "USA"}
	assert.Equal(t, "5 Market Street, San Francisco, CA 00000, USA", a.String())
	assert.Equal(t, "Austin", Address{City: "Austin"}.String())
}

package shop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kalambet/shopbot/internal/storage"
)

// Orders creates, looks up and cancels orders.
type Orders struct {
	store *storage.Store
}

func NewOrders(store *storage.Store) *Orders {
	return &Orders{store: store}
}

// CreateOrder places an order for userID. Stock is reserved atomically; if
// any line cannot be filled nothing is reserved and the error wraps
// ErrInsufficientStock.
func (o *Orders) CreateOrder(ctx context.Context, userID int64, items []LineItem, addr *Address, notes string) (Order, error) {
	if len(items) == 0 {
		return Order{}, fmt.Errorf("%w: an order needs at least one item", ErrInvalidInput)
	}
	row := storage.Order{UserID: userID, Notes: notes, Status: string(StatusPending)}
	for _, it := range items {
		if it.Quantity < 1 {
			return Order{}, fmt.Errorf("%w: quantity for product %d must be at least 1", ErrInvalidInput, it.ProductID)
		}
		row.Items = append(row.Items, storage.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if addr != nil {
		b, err := json.Marshal(addr)
		if err != nil {
			return Order{}, err
		}
		row.ShippingAddress = string(b)
	}

	created, err := o.store.CreateOrder(ctx, row)
	var se *storage.StockError
	switch {
	case errors.As(err, &se):
		return Order{}, fmt.Errorf("%w for %s: requested %d, available %d", ErrInsufficientStock, se.ProductName, se.Requested, se.Available)
	case errors.Is(err, storage.ErrNotFound):
		return Order{}, fmt.Errorf("%w: %v", ErrProductNotFound, err)
	case err != nil:
		return Order{}, fmt.Errorf("creating order: %w", err)
	}
	return orderFromRow(created), nil
}

// OrderStatus returns the order with its current status.
func (o *Orders) OrderStatus(ctx context.Context, id int64) (Order, error) {
	row, err := o.store.GetOrder(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Order{}, fmt.Errorf("%w: #%d", ErrOrderNotFound, id)
	}
	if err != nil {
		return Order{}, err
	}
	return orderFromRow(row), nil
}

// CancelOrder cancels an order owned by userID and returns its items to
// stock. Orders belonging to someone else are reported as not found.
func (o *Orders) CancelOrder(ctx context.Context, userID, id int64) (Order, error) {
	return o.transition(ctx, id, StatusCancelled, func(row storage.Order) error {
		if row.UserID != userID {
			return fmt.Errorf("%w: #%d", ErrOrderNotFound, id)
		}
		return nil
	})
}

// UpdateStatus moves an order along the fulfilment workflow.
func (o *Orders) UpdateStatus(ctx context.Context, id int64, next OrderStatus) (Order, error) {
	return o.transition(ctx, id, next, nil)
}

func (o *Orders) transition(ctx context.Context, id int64, next OrderStatus, owner func(storage.Order) error) (Order, error) {
	if owner != nil {
		cur, err := o.store.GetOrder(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return Order{}, fmt.Errorf("%w: #%d", ErrOrderNotFound, id)
		}
		if err != nil {
			return Order{}, err
		}
		if err := owner(cur); err != nil {
			return Order{}, err
		}
	}

	row, err := o.store.TransitionOrder(ctx, id, string(next), next == StatusCancelled, func(current string) error {
		if !CanTransition(OrderStatus(current), next) {
			return fmt.Errorf("%w: order #%d is %s and cannot be %s", ErrInvalidTransition, id, current, next)
		}
		return nil
	})
	if errors.Is(err, storage.ErrNotFound) {
		return Order{}, fmt.Errorf("%w: #%d", ErrOrderNotFound, id)
	}
	if err != nil {
		return Order{}, err
	}
	return orderFromRow(row), nil
}

func orderFromRow(r storage.Order) Order {
	o := Order{ID: r.ID, UserID: r.UserID, Status: OrderStatus(r.Status), Total: r.TotalAmount, Notes: r.Notes}
	for _, it := range r.Items {
		o.Items = append(o.Items, OrderLine{
			ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice, Total: it.TotalPrice,
		})
	}
	if r.ShippingAddress != "" {
		var a Address
		if json.Unmarshal([]byte(r.ShippingAddress), &a) == nil {
			o.ShippingAddress = &a
		}
	}
	return o
}

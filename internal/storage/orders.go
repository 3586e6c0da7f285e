package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// --- Orders ---

// CreateOrder checks and decrements stock for every line, then inserts the
// order and its items, all in one transaction. Any failure rolls the stock
// back with the rest of the transaction. A missing product returns an error
// wrapping ErrNotFound; a short line returns *StockError.
func (s *Store) CreateOrder(ctx context.Context, o Order) (Order, error) {
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	if o.Status == "" {
		o.Status = "pending"
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		o.TotalAmount = 0
		for i := range o.Items {
			it := &o.Items[i]
			var (
				name  string
				price float64
				stock int
			)
			err := tx.QueryRowContext(ctx, `SELECT name, price, stock FROM products WHERE id = ?`, it.ProductID).
				Scan(&name, &price, &stock)
			if err == sql.ErrNoRows {
				return fmt.Errorf("product %d: %w", it.ProductID, ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("loading product %d: %w", it.ProductID, err)
			}
			if stock < it.Quantity {
				return &StockError{ProductID: it.ProductID, ProductName: name, Requested: it.Quantity, Available: stock}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - ? WHERE id = ?`, it.Quantity, it.ProductID); err != nil {
				return fmt.Errorf("reserving stock for product %d: %w", it.ProductID, err)
			}
			it.Name = name
			it.UnitPrice = price
			it.TotalPrice = price * float64(it.Quantity)
			o.TotalAmount += it.TotalPrice
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (user_id, status, total_amount, shipping_address, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.UserID, o.Status, o.TotalAmount, o.ShippingAddress, o.Notes, formatTime(now), formatTime(now))
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}
		if o.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, it := range o.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price) VALUES (?, ?, ?, ?, ?)`,
				o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice); err != nil {
				return fmt.Errorf("inserting order item %d: %w", it.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		o, err = getOrder(ctx, tx, id)
		return err
	})
	return o, err
}

func getOrder(ctx context.Context, tx *sql.Tx, id int64) (Order, error) {
	var (
		o                    Order
		createdAt, updatedAt string
	)
	err := tx.QueryRowContext(ctx, `
		SELECT id, user_id, status, total_amount, shipping_address, notes, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.ShippingAddress, &o.Notes, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return Order{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Order{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT oi.product_id, p.name, oi.quantity, oi.unit_price, oi.total_price
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ? ORDER BY oi.product_id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// TransitionOrder moves an order to status next. check is called with the
// current status inside the transaction and may veto the change. With
// restock set, every line's quantity is returned to stock.
func (s *Store) TransitionOrder(ctx context.Context, id int64, next string, restock bool, check func(current string) error) (Order, error) {
	var o Order
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getOrder(ctx, tx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(cur.Status); err != nil {
				return err
			}
		}
		if restock {
			for _, it := range cur.Items {
				if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock + ? WHERE id = ?`, it.Quantity, it.ProductID); err != nil {
					return fmt.Errorf("restocking product %d: %w", it.ProductID, err)
				}
			}
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, next, formatTime(now), id); err != nil {
			return fmt.Errorf("updating order %d: %w", id, err)
		}
		cur.Status, cur.UpdatedAt = next, now
		o = cur
		return nil
	})
	return o, err
}

package order

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	PlaceOrderTx(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID uint) ([]*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int, error)
	Delete(ctx context.Context, id int64) error
	MarkPaid(ctx context.Context, id int64, at time.Time) error
	UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error
	CancelTx(ctx context.Context, o *Order, at time.Time) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// PlaceOrderTx reserves stock for every line and persists the order in one
// transaction. A line whose conditional decrement touches no row aborts the
// whole order with ErrInsufficientStock.
func (r *repository) PlaceOrderTx(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "order"),
		zap.String("method", "PlaceOrderTx"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Reserve stock
	for _, item := range lockOrder(o.Items) {
		res, err := tx.ExecContext(ctx, `
			UPDATE product_sizes
			SET stock = stock - $1
			WHERE product_id = $2 AND size = $3 AND stock >= $1
		`, item.Quantity, item.ProductID, item.Size)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			log.Warn("conditional stock decrement failed",
				zap.Int64("product_id", item.ProductID),
				zap.String("size", item.Size),
				zap.Int("quantity", item.Quantity),
			)
			return fmt.Errorf("%w: %s (%s)", ErrInsufficientStock, item.Name, item.Size)
		}
	}

	// 2. Insert order
	sa := o.ShippingAddress
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, user_id,
			shipping_title, shipping_recipient, shipping_phone, shipping_city,
			shipping_district, shipping_neighborhood, shipping_line, shipping_postal_code,
			payment_method, items_price, shipping_price, total_price, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id, created_at, updated_at
	`,
		o.OrderNumber, o.UserID,
		sa.Title, sa.Recipient, sa.Phone, sa.City,
		sa.District, sa.Neighborhood, sa.Line, sa.PostalCode,
		o.PaymentMethod, o.ItemsPrice, o.ShippingPrice, o.TotalPrice, o.Status,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	// 3. Insert line snapshots
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, name, size, color, image, quantity, price
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			RETURNING id
		`,
			o.ID, item.ProductID, item.Name, item.Size, item.Color, item.Image, item.Quantity, item.Price,
		).Scan(&item.ID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info("order persisted", zap.Int64("order_id", o.ID), zap.Int("lines", len(o.Items)))
	return nil
}

// lockOrder returns the lines sorted by (product, size) so every transaction
// takes product_sizes row locks in the same order.
func lockOrder(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].Size < out[j].Size
	})
	return out
}

const orderColumns = `
	o.id, o.order_number, o.user_id,
	o.shipping_title, o.shipping_recipient, o.shipping_phone, o.shipping_city,
	o.shipping_district, o.shipping_neighborhood, o.shipping_line, o.shipping_postal_code,
	o.payment_method, o.items_price, o.shipping_price, o.total_price, o.status,
	o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.created_at, o.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*Order, error) {
	var (
		o                   Order
		paidAt, deliveredAt sql.NullTime
	)
	sa := &o.ShippingAddress
	if err := s.Scan(
		&o.ID, &o.OrderNumber, &o.UserID,
		&sa.Title, &sa.Recipient, &sa.Phone, &sa.City,
		&sa.District, &sa.Neighborhood, &sa.Line, &sa.PostalCode,
		&o.PaymentMethod, &o.ItemsPrice, &o.ShippingPrice, &o.TotalPrice, &o.Status,
		&o.IsPaid, &paidAt, &o.IsDelivered, &deliveredAt, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		o.PaidAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		o.DeliveredAt = &t
	}
	o.Items = []Item{}
	return &o, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders o WHERE o.id = $1", id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	return orders, r.loadItems(ctx, orders)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "order"),
		zap.String("method", "List"),
	)

	// ---------- FILTERING ----------
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.UserID != nil {
		where += fmt.Sprintf(" AND o.user_id = $%d", argIndex)
		args = append(args, *filter.UserID)
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o"+where, args...).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	// ---------- PAGINATION ----------
	query := "SELECT " + orderColumns + " FROM orders o" + where +
		" ORDER BY o.created_at DESC, o.id DESC" +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func collectOrders(rows *sql.Rows) ([]*Order, error) {
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, COALESCE(product_id, 0), name, size, color, image, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Size,
			&it.Color, &it.Image, &it.Quantity, &it.Price,
		); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// Delete removes the order and its lines. Reserved stock is not restored.
func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) MarkPaid(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET is_paid = TRUE, paid_at = $1, updated_at = $1
		WHERE id = $2
	`, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateStatus moves an order from one status to the next. The WHERE on the
// current status makes a concurrent transition lose with ErrStatusConflict.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
			is_delivered = is_delivered OR $1 = 'Delivered',
			delivered_at = CASE WHEN $1 = 'Delivered' THEN $2 ELSE delivered_at END,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`, to, at, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusConflict
	}
	return nil
}

// CancelTx marks the order Cancelled and returns every line's quantity to
// the size ledger. Lines whose product was deleted are skipped.
func (r *repository) CancelTx(ctx context.Context, o *Order, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, StatusCancelled, at, o.ID, o.Status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusConflict
	}

	for _, item := range lockOrder(o.Items) {
		if _, err := tx.ExecContext(ctx, `
			UPDATE product_sizes
			SET stock = stock + $1
			WHERE product_id = $2 AND size = $3
		`, item.Quantity, item.ProductID, item.Size); err != nil {
			return err
		}
	}

	return tx.Commit()
}

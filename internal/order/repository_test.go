package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-be/internal/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderCols = []string{
	"id", "order_number", "user_id",
	"shipping_title", "shipping_recipient", "shipping_phone", "shipping_city",
	"shipping_district", "shipping_neighborhood", "shipping_line", "shipping_postal_code",
	"payment_method", "items_price", "shipping_price", "total_price", "status",
	"is_paid", "paid_at", "is_delivered", "delivered_at", "created_at", "updated_at",
}

var itemCols = []string{"id", "order_id", "product_id", "name", "size", "color", "image", "quantity", "price"}

func orderRow(rows *sqlmock.Rows, id int64, userID uint, status Status) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(
		id, "ORD-1", userID,
		"Home", "Jane", "555", "Istanbul",
		"Kadikoy", "Moda", "Main St 1", "34710",
		"CreditCard", "250", "50", "300", string(status),
		false, nil, false, nil, now, now,
	)
}

func newPendingOrder() *Order {
	return &Order{
		OrderNumber: "ORD-1",
		UserID:      1,
		Items: []Item{
			{ProductID: 10, Name: "Dress", Size: "M", Quantity: 5, Price: decimal.NewFromInt(100)},
		},
		PaymentMethod: "CreditCard",
		ItemsPrice:    decimal.NewFromInt(500),
		ShippingPrice: decimal.Zero,
		TotalPrice:    decimal.NewFromInt(500),
		Status:        StatusPending,
	}
}

func TestRepository_PlaceOrderTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		o := newPendingOrder()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec(`(?s)UPDATE product_sizes\s+SET stock = stock - \$1\s+WHERE product_id = \$2 AND size = \$3 AND stock >= \$1`).
			WithArgs(5, int64(10), "M").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`(?s)INSERT INTO orders .* RETURNING id, created_at, updated_at`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(77, now, now))
		mock.ExpectQuery(`(?s)INSERT INTO order_items .* RETURNING id`).
			WithArgs(int64(77), int64(10), "Dress", "M", "", "", 5, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		require.NoError(t, repo.PlaceOrderTx(ctx, o))
		assert.Equal(t, int64(77), o.ID)
		assert.Equal(t, int64(77), o.Items[0].OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsufficientStock_NothingPersisted", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		o := newPendingOrder()
		o.Items = append(o.Items, Item{ProductID: 11, Name: "Shirt", Size: "L", Quantity: 3, Price: decimal.NewFromInt(40)})

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE product_sizes`).
			WithArgs(5, int64(10), "M").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE product_sizes`).
			WithArgs(3, int64(11), "L").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err = repo.PlaceOrderTx(ctx, o)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))
		assert.Zero(t, o.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ReservesInProductSizeOrder", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		now := time.Now()
		o := newPendingOrder()
		o.Items = []Item{
			{ProductID: 20, Name: "Coat", Size: "M", Quantity: 1, Price: decimal.NewFromInt(300)},
			{ProductID: 10, Name: "Dress", Size: "S", Quantity: 2, Price: decimal.NewFromInt(100)},
			{ProductID: 10, Name: "Dress", Size: "L", Quantity: 1, Price: decimal.NewFromInt(100)},
		}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE product_sizes`).WithArgs(1, int64(10), "L").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE product_sizes`).WithArgs(2, int64(10), "S").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE product_sizes`).WithArgs(1, int64(20), "M").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(78, now, now))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WithArgs(int64(78), int64(20), "Coat", "M", "", "", 1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WithArgs(int64(78), int64(10), "Dress", "S", "", "", 2, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
		mock.ExpectQuery(`INSERT INTO order_items`).
			WithArgs(int64(78), int64(10), "Dress", "L", "", "", 1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectCommit()

		require.NoError(t, repo.PlaceOrderTx(ctx, o))
		assert.Equal(t, int64(20), o.Items[0].ProductID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertFails_RollsBack", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE product_sizes`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO orders`).WillReturnError(errors.New("db error"))
		mock.ExpectRollback()

		assert.Error(t, repo.PlaceOrderTx(ctx, newPendingOrder()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BeginFails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin().WillReturnError(errors.New("conn refused"))

		assert.EqualError(t, repo.PlaceOrderTx(ctx, newPendingOrder()), "conn refused")
	})
}

func TestRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectQuery(`(?s)SELECT .* FROM orders o WHERE o.id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(orderRow(sqlmock.NewRows(orderCols), 5, 1, StatusPending))
		mock.ExpectQuery(`(?s)FROM order_items\s+WHERE order_id = ANY\(\$1\)`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(itemCols).
				AddRow(1, 5, 10, "Dress", "M", "red", "a.jpg", 2, "125"))

		o, err := repo.GetByID(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, "Main St 1", o.ShippingAddress.Line)
		assert.True(t, decimal.NewFromInt(300).Equal(o.TotalPrice))
		assert.Nil(t, o.PaidAt)
		require.Len(t, o.Items, 1)
		assert.Equal(t, 2, o.Items[0].Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectQuery(`FROM orders o WHERE o.id`).WillReturnRows(sqlmock.NewRows(orderCols))

		_, err = repo.GetByID(ctx, 5)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	mock.ExpectQuery(`(?s)FROM orders o WHERE o.user_id = \$1 ORDER BY o.created_at DESC`).
		WithArgs(uint(1)).
		WillReturnRows(orderRow(orderRow(sqlmock.NewRows(orderCols), 2, 1, StatusShipped), 1, 1, StatusPending))
	mock.ExpectQuery(`FROM order_items`).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(1, 1, 10, "Dress", "M", "", "", 1, "100").
			AddRow(2, 2, 11, "Shirt", "L", "", "", 2, "40"))

	orders, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "Shirt", orders[0].Items[0].Name)
	assert.Equal(t, "Dress", orders[1].Items[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	userID := uint(3)
	filter := ListFilter{Status: StatusPending, UserID: &userID, Page: 2, Limit: 10}

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders o WHERE 1=1 AND o.status = \$1 AND o.user_id = \$2`).
		WithArgs("Pending", uint(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(`(?s)FROM orders o WHERE 1=1 AND o.status = \$1 AND o.user_id = \$2 ORDER BY .* LIMIT \$3 OFFSET \$4`).
		WithArgs("Pending", uint(3), 10, 10).
		WillReturnRows(orderRow(sqlmock.NewRows(orderCols), 9, 3, StatusPending))
	mock.ExpectQuery(`FROM order_items`).WillReturnRows(sqlmock.NewRows(itemCols))

	orders, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, orders, 1)
	assert.Empty(t, orders[0].Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteAndMarkPaid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM orders WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(ctx, 4))

	mock.ExpectExec(`DELETE FROM orders WHERE id = \$1`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, 5), ErrOrderNotFound)

	at := time.Now()
	mock.ExpectExec(`(?s)UPDATE orders\s+SET is_paid = TRUE, paid_at = \$1`).
		WithArgs(at, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkPaid(ctx, 4, at))

	mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkPaid(ctx, 6, at), ErrOrderNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	at := time.Now()

	mock.ExpectExec(`(?s)UPDATE orders\s+SET status = \$1.*WHERE id = \$3 AND status = \$4`).
		WithArgs("Delivered", at, int64(4), "Shipped").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateStatus(context.Background(), 4, StatusShipped, StatusDelivered, at))

	mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), 4, StatusPending, StatusProcessing, at), ErrStatusConflict)
}

func TestRepository_CancelTx(t *testing.T) {
	ctx := context.Background()
	at := time.Now()

	o := &Order{
		ID:     4,
		Status: StatusProcessing,
		Items: []Item{
			{ProductID: 10, Size: "M", Quantity: 2},
			{ProductID: 11, Size: "L", Quantity: 1},
		},
	}

	t.Run("RestoresStock", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`(?s)UPDATE orders\s+SET status = \$1, updated_at = \$2\s+WHERE id = \$3 AND status = \$4`).
			WithArgs("Cancelled", at, int64(4), "Processing").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`(?s)UPDATE product_sizes\s+SET stock = stock \+ \$1`).
			WithArgs(2, int64(10), "M").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`(?s)UPDATE product_sizes\s+SET stock = stock \+ \$1`).
			WithArgs(1, int64(11), "L").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		require.NoError(t, repo.CancelTx(ctx, o, at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ConcurrentChange", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.CancelTx(ctx, o, at), ErrStatusConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

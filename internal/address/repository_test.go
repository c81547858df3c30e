package address

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addressCols = []string{
	"id", "user_id", "title", "recipient", "phone", "city", "district", "neighborhood",
	"line", "postal_code", "is_default", "created_at",
}

func newAddress(userID uint, isDefault bool) *Address {
	return &Address{
		ID: uuid.New(), UserID: userID, Title: "Home", Recipient: "Jane",
		City: "Istanbul", Line: "Main St 1", IsDefault: isDefault,
	}
}

func TestRepository_GetByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`(?s)SELECT .* FROM addresses\s+WHERE user_id = \$1\s+ORDER BY created_at, id`).
		WithArgs(uint(1)).
		WillReturnRows(sqlmock.NewRows(addressCols).
			AddRow(id.String(), 1, "Home", "Jane", "555", "Istanbul", "Kadikoy", "Moda", "Main St 1", "34710", true, time.Now()))

	list, err := repo.GetByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`(?s)FROM addresses\s+WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, uint(1)).
		WillReturnRows(sqlmock.NewRows(addressCols))

	_, err = repo.GetByID(context.Background(), 1, id)
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstAddressForcedDefault", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		addr := newAddress(1, false)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1 FOR UPDATE`).
			WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM addresses WHERE user_id = \$1`).
			WithArgs(uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO addresses`).
			WithArgs(addr.ID, uint(1), "Home", "Jane", "", "Istanbul", "", "", "Main St 1", "", true).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, addr))
		assert.True(t, addr.IsDefault)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NewDefaultClearsOthers", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		addr := newAddress(1, true)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM addresses`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectExec(`(?s)UPDATE addresses\s+SET is_default = false\s+WHERE user_id = \$1`).
			WithArgs(uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO addresses`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, addr))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NonDefaultSecondAddress", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		addr := newAddress(1, false)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM addresses`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`INSERT INTO addresses`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, addr))
		assert.False(t, addr.IsDefault)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownUser", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Create(ctx, newAddress(9, false)), ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertFails_RollsBack", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM addresses`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectExec(`UPDATE addresses`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO addresses`).WillReturnError(errors.New("insert failed"))
		mock.ExpectRollback()

		assert.Error(t, repo.Create(ctx, newAddress(1, true)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("SetDefault", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		addr := newAddress(1, true)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(`(?s)UPDATE addresses\s+SET is_default = false\s+WHERE user_id = \$1\s+AND id <> \$2`).
			WithArgs(uint(1), addr.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`(?s)UPDATE addresses SET\s+title = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Update(ctx, addr))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(`UPDATE addresses SET`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Update(ctx, newAddress(1, false)), ErrAddressNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("DefaultPromotesOldest", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`(?s)DELETE FROM addresses\s+WHERE id = \$1 AND user_id = \$2\s+RETURNING is_default`).
			WithArgs(id, uint(1)).
			WillReturnRows(sqlmock.NewRows([]string{"is_default"}).AddRow(true))
		mock.ExpectExec(`(?s)UPDATE addresses\s+SET is_default = true.*ORDER BY created_at, id\s+LIMIT 1`).
			WithArgs(uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(ctx, 1, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NonDefaultNoPromotion", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`DELETE FROM addresses`).
			WillReturnRows(sqlmock.NewRows([]string{"is_default"}).AddRow(false))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(ctx, 1, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`DELETE FROM addresses`).WillReturnRows(sqlmock.NewRows([]string{"is_default"}))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Delete(ctx, 1, id), ErrAddressNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

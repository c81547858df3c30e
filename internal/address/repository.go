package address

import (
	"context"
	"database/sql"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository mutations each run in a single transaction that first locks the
// owning user row, so concurrent edits to one address book serialize.
type Repository interface {
	GetByUserID(ctx context.Context, userID uint) ([]*Address, error)
	GetByID(ctx context.Context, userID uint, id uuid.UUID) (*Address, error)

	Create(ctx context.Context, addr *Address) error
	Update(ctx context.Context, addr *Address) error
	Delete(ctx context.Context, userID uint, id uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const addressColumns = `
	id, user_id, title, recipient, phone, city, district, neighborhood,
	line, postal_code, is_default, created_at`

func scanAddress(s interface{ Scan(...any) error }) (*Address, error) {
	var a Address
	err := s.Scan(
		&a.ID, &a.UserID, &a.Title, &a.Recipient, &a.Phone, &a.City, &a.District, &a.Neighborhood,
		&a.Line, &a.PostalCode, &a.IsDefault, &a.CreatedAt,
	)
	return &a, err
}

func (r *repository) GetByUserID(ctx context.Context, userID uint) ([]*Address, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "GetByUserID"),
		zap.Uint("user_id", userID),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	res := []*Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			log.Error("scan failed", zap.Error(err))
			return nil, err
		}
		res = append(res, a)
	}

	return res, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, userID uint, id uuid.UUID) (*Address, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	a, err := scanAddress(row)
	if err == sql.ErrNoRows {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func lockUser(ctx context.Context, tx *sql.Tx, userID uint) error {
	var id uint
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	return err
}

// Create inserts addr. The first address of a user is always the default,
// and a new default clears the flag on every other address.
func (r *repository) Create(ctx context.Context, addr *Address) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "Create"),
		zap.String("address_id", addr.ID.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockUser(ctx, tx, addr.UserID); err != nil {
		return err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, addr.UserID,
	).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		addr.IsDefault = true
	}

	if addr.IsDefault && count > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE addresses
			SET is_default = false
			WHERE user_id = $1
			  AND is_default = true
		`, addr.UserID); err != nil {
			return err
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO addresses (
			id, user_id, title, recipient, phone, city, district, neighborhood,
			line, postal_code, is_default
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at
	`,
		addr.ID, addr.UserID, addr.Title, addr.Recipient, addr.Phone, addr.City, addr.District, addr.Neighborhood,
		addr.Line, addr.PostalCode, addr.IsDefault,
	).Scan(&addr.CreatedAt)
	if err != nil {
		log.Error("insert failed", zap.Error(err))
		return err
	}

	return tx.Commit()
}

func (r *repository) Update(ctx context.Context, addr *Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockUser(ctx, tx, addr.UserID); err != nil {
		return err
	}

	if addr.IsDefault {
		if _, err := tx.ExecContext(ctx, `
			UPDATE addresses
			SET is_default = false
			WHERE user_id = $1
			  AND id <> $2
			  AND is_default = true
		`, addr.UserID, addr.ID); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE addresses SET
			title = $1, recipient = $2, phone = $3, city = $4, district = $5,
			neighborhood = $6, line = $7, postal_code = $8, is_default = $9
		WHERE id = $10 AND user_id = $11
	`,
		addr.Title, addr.Recipient, addr.Phone, addr.City, addr.District,
		addr.Neighborhood, addr.Line, addr.PostalCode, addr.IsDefault,
		addr.ID, addr.UserID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAddressNotFound
	}

	return tx.Commit()
}

// Delete removes the address; when it was the default, the oldest remaining
// address is promoted.
func (r *repository) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "Address"),
		zap.String("method", "Delete"),
		zap.String("address_id", id.String()),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockUser(ctx, tx, userID); err != nil {
		return err
	}

	var wasDefault bool
	err = tx.QueryRowContext(ctx, `
		DELETE FROM addresses
		WHERE id = $1 AND user_id = $2
		RETURNING is_default
	`, id, userID).Scan(&wasDefault)
	if err == sql.ErrNoRows {
		return ErrAddressNotFound
	}
	if err != nil {
		return err
	}

	if wasDefault {
		log.Debug("promoting oldest remaining address")
		if _, err := tx.ExecContext(ctx, `
			UPDATE addresses
			SET is_default = true
			WHERE id = (
				SELECT id FROM addresses
				WHERE user_id = $1
				ORDER BY created_at, id
				LIMIT 1
			)
		`, userID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

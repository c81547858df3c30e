package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id uint) error

	SetResetToken(ctx context.Context, id uint, hash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id uint) error
	FindByResetToken(ctx context.Context, hash string, now time.Time) (*User, error)
	ResetPassword(ctx context.Context, id uint, password string) error

	ToggleFavorite(ctx context.Context, userID uint, productID int64) ([]int64, error)
	Favorites(ctx context.Context, userID uint) ([]int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, password, is_admin, phone, created_at, updated_at`

func scanUser(s interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.IsAdmin, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *repository) Create(ctx context.Context, u *User) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "user"),
		zap.String("method", "Create"),
	)

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password, is_admin, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.Password, u.IsAdmin, u.Phone).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrEmailExists
	}
	if err != nil {
		log.Error("db: failed to insert user",
			zap.String("email", u.Email),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1",
		email,
	))
}

func (r *repository) GetByID(ctx context.Context, id uint) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1",
		id,
	))
}

func (r *repository) Update(ctx context.Context, u *User) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = $1, email = $2, phone = $3, password = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`, u.Name, u.Email, u.Phone, u.Password, u.ID).Scan(&u.UpdatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrUserNotFound
	case isUniqueViolation(err):
		return ErrEmailExists
	}
	return err
}

func (r *repository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ---------- PASSWORD RESET ----------

func (r *repository) SetResetToken(ctx context.Context, id uint, hash string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET reset_token_hash = $1, reset_token_expires = $2
		WHERE id = $3
	`, hash, expires, id)
	return err
}

func (r *repository) ClearResetToken(ctx context.Context, id uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires = NULL
		WHERE id = $1
	`, id)
	return err
}

func (r *repository) FindByResetToken(ctx context.Context, hash string, now time.Time) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash = $1 AND reset_token_expires > $2",
		hash, now,
	))
}

// ResetPassword stores the new hash and consumes the token in one statement.
func (r *repository) ResetPassword(ctx context.Context, id uint, password string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password = $1, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = NOW()
		WHERE id = $2
	`, password, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ---------- FAVORITES ----------

// ToggleFavorite removes productID from the set when present and adds it
// otherwise, then returns the resulting set in insertion order.
func (r *repository) ToggleFavorite(ctx context.Context, userID uint, productID int64) ([]int64, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "user"),
		zap.String("method", "ToggleFavorite"),
		zap.Uint("user_id", userID),
		zap.Int64("product_id", productID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var locked uint
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO favorites (user_id, product_id) VALUES ($1, $2)`,
			userID, productID,
		); err != nil {
			log.Error("failed to add favorite", zap.Error(err))
			return nil, err
		}
	}

	ids, err := queryFavorites(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) Favorites(ctx context.Context, userID uint) ([]int64, error) {
	return queryFavorites(ctx, r.db, userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryFavorites(ctx context.Context, q querier, userID uint) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at, product_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

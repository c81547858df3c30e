package product

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/pricing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]*Product, int, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product, stock SizeStock) error
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]string, error)
	Brands(ctx context.Context) ([]string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `
	p.id, COALESCE(p.user_id, 0), p.name, p.description, p.price, p.brand, p.category,
	p.images, p.color,
	p.discount_type, p.discount_amount, p.discount_start, p.discount_end, p.discount_active,
	p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (*Product, error) {
	var (
		p            Product
		discountType sql.NullString
		start, end   sql.NullTime
	)
	if err := s.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.Price, &p.Brand, &p.Category,
		pq.Array(&p.Images), &p.Color,
		&discountType, &p.Discount.Amount, &start, &end, &p.Discount.Active,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Discount.Type = pricing.DiscountType(discountType.String)
	if start.Valid {
		t := start.Time
		p.Discount.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		p.Discount.EndDate = &t
	}
	p.SizeStock = SizeStock{}
	return &p, nil
}

func discountArgs(d pricing.Discount) (any, decimal.Decimal, any, any, bool) {
	var typ, start, end any
	if d.Type != "" {
		typ = string(d.Type)
	}
	if d.StartDate != nil {
		start = *d.StartDate
	}
	if d.EndDate != nil {
		end = *d.EndDate
	}
	return typ, d.Amount, start, end, d.Active
}

func (r *repository) List(ctx context.Context, opts ListOptions) ([]*Product, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "product"),
		zap.String("method", "List"),
	)

	// ---------- FILTERING ----------
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if opts.Keyword != "" {
		where += fmt.Sprintf(
			" AND (p.name ILIKE $%d OR p.description ILIKE $%d OR p.brand ILIKE $%d)",
			argIndex, argIndex, argIndex,
		)
		args = append(args, "%"+opts.Keyword+"%")
		argIndex++
	}

	if opts.Category != "" {
		where += fmt.Sprintf(" AND p.category ILIKE $%d", argIndex)
		args = append(args, opts.Category+"%")
		argIndex++
	}

	if opts.Brand != "" {
		where += fmt.Sprintf(" AND LOWER(p.brand) = LOWER($%d)", argIndex)
		args = append(args, opts.Brand)
		argIndex++
	}

	if opts.Size != "" {
		where += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM product_sizes s WHERE s.product_id = p.id AND s.size = $%d AND s.stock > 0)",
			argIndex,
		)
		args = append(args, opts.Size)
		argIndex++
	}

	if opts.MinPrice != nil {
		where += fmt.Sprintf(" AND p.price >= $%d", argIndex)
		args = append(args, *opts.MinPrice)
		argIndex++
	}

	if opts.MaxPrice != nil {
		where += fmt.Sprintf(" AND p.price <= $%d", argIndex)
		args = append(args, *opts.MaxPrice)
		argIndex++
	}

	// ---------- COUNT ----------
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products p"+where, args...).Scan(&total); err != nil {
		log.Error("failed to count products", zap.Error(err))
		return nil, 0, err
	}

	// ---------- SORTING ----------
	orderBy := "p.created_at DESC, p.id DESC"
	switch opts.Sort {
	case SortPriceAsc:
		orderBy = "p.price ASC, p.id ASC"
	case SortPriceDesc:
		orderBy = "p.price DESC, p.id DESC"
	case SortName:
		orderBy = "p.name ASC, p.id ASC"
	}

	// ---------- PAGINATION ----------
	query := "SELECT " + productColumns + " FROM products p" + where +
		" ORDER BY " + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	log.Debug("executing list products query", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var (
		products []*Product
		ids      []int64
		byID     = map[int64]*Product{}
	)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product row", zap.Error(err))
			return nil, 0, err
		}
		products = append(products, p)
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		if err := r.loadSizes(ctx, ids, byID); err != nil {
			log.Error("failed to load product sizes", zap.Error(err))
			return nil, 0, err
		}
	}

	return products, total, nil
}

func (r *repository) loadSizes(ctx context.Context, ids []int64, byID map[int64]*Product) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, size, stock
		FROM product_sizes
		WHERE product_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID int64
			size      string
			stock     int
		)
		if err := rows.Scan(&productID, &size, &stock); err != nil {
			return err
		}
		if p, ok := byID[productID]; ok {
			p.SizeStock[size] = stock
		}
	}
	return rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products p WHERE p.id = $1", id)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get product",
			zap.String("repo", "product"),
			zap.Int64("product_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	if err := r.loadSizes(ctx, []int64{id}, map[int64]*Product{id: p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	typ, amount, start, end, active := discountArgs(p.Discount)

	// 1. Insert product
	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (
			user_id, name, description, price, brand, category, images, color,
			discount_type, discount_amount, discount_start, discount_end, discount_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at
	`,
		p.UserID, p.Name, p.Description, p.Price, p.Brand, p.Category, pq.Array(p.Images), p.Color,
		typ, amount, start, end, active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}

	// 2. Insert size ledger
	for _, size := range p.SizeStock.Sizes() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_sizes (product_id, size, stock)
			VALUES ($1, $2, $3)
		`, p.ID, size, p.SizeStock.Get(size)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update writes the product row and, for the sizes named in stock only, the
// new absolute quantity. Sizes left out keep whatever concurrent orders made
// of them.
func (r *repository) Update(ctx context.Context, p *Product, stock SizeStock) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	typ, amount, start, end, active := discountArgs(p.Discount)

	res, err := tx.ExecContext(ctx, `
		UPDATE products SET
			name = $1, description = $2, price = $3, brand = $4, category = $5,
			images = $6, color = $7,
			discount_type = $8, discount_amount = $9, discount_start = $10,
			discount_end = $11, discount_active = $12,
			updated_at = $13
		WHERE id = $14
	`,
		p.Name, p.Description, p.Price, p.Brand, p.Category,
		pq.Array(p.Images), p.Color,
		typ, amount, start, end, active,
		time.Now(), p.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}

	for _, size := range stock.Sizes() {
		res, err := tx.ExecContext(ctx, `
			UPDATE product_sizes SET stock = $1
			WHERE product_id = $2 AND size = $3
		`, stock.Get(size), p.ID, size)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrUnknownSize, size)
		}
	}

	return tx.Commit()
}

// Delete is a hard delete; product_sizes rows cascade.
func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) Categories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`)
}

func (r *repository) Brands(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, `SELECT DISTINCT brand FROM products WHERE brand <> '' ORDER BY brand`)
}

func (r *repository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// ProductStore implements domain.ProductStore on PostgreSQL. Quantity and
// reserved are written only at creation; afterwards they belong to the
// inventory ledger.
type ProductStore struct {
	pool *pgxpool.Pool
}

var _ domain.ProductStore = (*ProductStore)(nil)

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const selectProduct = `
	SELECT id, title, description, price_cents, images, category, sku,
	       availability, quantity, reserved, is_featured, tags,
	       created_at, updated_at
	FROM products`

func (s *ProductStore) Create(ctx context.Context, p *domain.Product) error {
	const op = "product.create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (
			id, title, description, price_cents, images, category, sku,
			availability, quantity, reserved, is_featured, tags,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, now(), now())`,
		p.ID, p.Title, p.Description, p.PriceCents, p.Images, p.Category, p.SKU,
		p.Availability, p.Quantity, p.IsFeatured, p.Tags)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSKU
		}
		return domain.Internal(err, op, "failed to create product")
	}
	return nil
}

func (s *ProductStore) Update(ctx context.Context, p *domain.Product) error {
	const op = "product.update"

	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET title = $2, description = $3, price_cents = $4, images = $5,
		    category = $6, sku = $7, availability = $8, quantity = $9,
		    is_featured = $10, tags = $11, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Title, p.Description, p.PriceCents, p.Images,
		p.Category, p.SKU, p.Availability, p.Quantity,
		p.IsFeatured, p.Tags)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSKU
		}
		return domain.Internal(err, op, "failed to update product")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	const op = "product.delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete product")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (s *ProductStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	const op = "product.get"

	p, err := scanProduct(s.pool.QueryRow(ctx, selectProduct+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get product")
	}
	return p, nil
}

func (s *ProductStore) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	const op = "product.get_by_ids"

	rows, err := s.pool.Query(ctx, selectProduct+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get products")
	}
	defer rows.Close()

	out := make(map[string]*domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan product")
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read products")
	}
	return out, nil
}

func (s *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	const op = "product.list"

	rows, err := s.pool.Query(ctx, selectProduct+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan product")
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read products")
	}
	return out, nil
}

func (s *ProductStore) CountByCategory(ctx context.Context, category string) (int64, error) {
	const op = "product.count_by_category"

	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE category = $1`, category).Scan(&n)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to count products")
	}
	return n, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.PriceCents, &p.Images,
		&p.Category, &p.SKU, &p.Availability, &p.Quantity, &p.Reserved,
		&p.IsFeatured, &p.Tags, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

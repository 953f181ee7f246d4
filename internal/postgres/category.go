package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// CategoryStore implements domain.CategoryStore on PostgreSQL.
type CategoryStore struct {
	pool *pgxpool.Pool
}

var _ domain.CategoryStore = (*CategoryStore)(nil)

func NewCategoryStore(pool *pgxpool.Pool) *CategoryStore {
	return &CategoryStore{pool: pool}
}

const selectCategory = `
	SELECT id, name, description, parent_id, is_active, image, sort_order,
	       created_at, updated_at
	FROM categories`

func (s *CategoryStore) Create(ctx context.Context, c *domain.Category) error {
	const op = "category.create"

	var parentID *string
	if c.ParentID != "" {
		parentID = &c.ParentID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (id, name, description, parent_id, is_active, image, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		c.ID, c.Name, c.Description, parentID, c.Active, c.Image, c.SortOrder)
	if err != nil {
		return domain.Internal(err, op, "failed to create category")
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	const op = "category.delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete category")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (s *CategoryStore) Get(ctx context.Context, id string) (*domain.Category, error) {
	const op = "category.get"

	c, err := scanCategory(s.pool.QueryRow(ctx, selectCategory+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get category")
	}
	return c, nil
}

func (s *CategoryStore) List(ctx context.Context, rootOnly bool) ([]domain.Category, error) {
	clause := ` WHERE is_active`
	if rootOnly {
		clause += ` AND parent_id IS NULL`
	}
	return s.list(ctx, "category.list", clause)
}

func (s *CategoryStore) Subcategories(ctx context.Context, parentID string) ([]domain.Category, error) {
	return s.list(ctx, "category.subcategories", ` WHERE is_active AND parent_id = $1`, parentID)
}

func (s *CategoryStore) list(ctx context.Context, op, clause string, args ...any) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, selectCategory+clause+` ORDER BY sort_order, name`, args...)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list categories")
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan category")
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read categories")
	}
	return out, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c        domain.Category
		parentID *string
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &parentID, &c.Active, &c.Image,
		&c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		c.ParentID = *parentID
	}
	return &c, nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meghkala/api/internal/domain"
)

// ReviewStore implements domain.ReviewStore on PostgreSQL. The reviewer
// name is joined from users on every read.
type ReviewStore struct {
	pool *pgxpool.Pool
}

var _ domain.ReviewStore = (*ReviewStore)(nil)

func NewReviewStore(pool *pgxpool.Pool) *ReviewStore {
	return &ReviewStore{pool: pool}
}

const selectReview = `
	SELECT r.id, r.product_id, r.user_id, u.name, r.rating, r.title,
	       r.comment, r.images, r.is_verified, r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id`

func (s *ReviewStore) Create(ctx context.Context, rv *domain.Review) error {
	const op = "review.create"

	_, err := s.pool.Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, title, comment, images, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment, rv.Images, rv.Verified)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyReviewed
		}
		return domain.Internal(err, op, "failed to create review")
	}
	return nil
}

func (s *ReviewStore) Update(ctx context.Context, rv *domain.Review) error {
	const op = "review.update"

	tag, err := s.pool.Exec(ctx, `
		UPDATE reviews
		SET rating = $2, title = $3, comment = $4, images = $5, updated_at = now()
		WHERE id = $1`,
		rv.ID, rv.Rating, rv.Title, rv.Comment, rv.Images)
	if err != nil {
		return domain.Internal(err, op, "failed to update review")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	const op = "review.delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return domain.Internal(err, op, "failed to delete review")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

func (s *ReviewStore) Get(ctx context.Context, id string) (*domain.Review, error) {
	const op = "review.get"

	rv, err := scanReview(s.pool.QueryRow(ctx, selectReview+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReviewNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get review")
	}
	return rv, nil
}

func (s *ReviewStore) ListByProduct(ctx context.Context, productID string, page domain.ReviewPage) ([]domain.Review, int64, error) {
	const op = "review.list_by_product"

	var total int64
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM reviews WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return nil, 0, domain.Internal(err, op, "failed to count reviews")
	}

	rows, err := s.pool.Query(ctx,
		selectReview+` WHERE r.product_id = $1 ORDER BY `+reviewOrder(page.Sort)+` OFFSET $2 LIMIT $3`,
		productID, (page.Page-1)*page.Limit, page.Limit)
	if err != nil {
		return nil, 0, domain.Internal(err, op, "failed to list reviews")
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, domain.Internal(err, op, "failed to scan review")
		}
		out = append(out, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.Internal(err, op, "failed to read reviews")
	}
	return out, total, nil
}

func (s *ReviewStore) Summary(ctx context.Context, productID string) (domain.RatingSummary, error) {
	const op = "review.summary"

	var sum domain.RatingSummary
	err := s.pool.QueryRow(ctx,
		`SELECT coalesce(avg(rating), 0), count(*) FROM reviews WHERE product_id = $1`,
		productID).Scan(&sum.Average, &sum.Count)
	if err != nil {
		return domain.RatingSummary{}, domain.Internal(err, op, "failed to aggregate ratings")
	}
	return sum, nil
}

// reviewOrder maps a sort option onto an ORDER BY clause. The sort is
// vetted here so it can be spliced into the query.
func reviewOrder(sort domain.ReviewSort) string {
	switch sort {
	case domain.ReviewSortOldest:
		return "r.created_at ASC"
	case domain.ReviewSortRatingHigh:
		return "r.rating DESC, r.created_at DESC"
	case domain.ReviewSortRatingLow:
		return "r.rating ASC, r.created_at DESC"
	default:
		return "r.created_at DESC"
	}
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating,
		&rv.Title, &rv.Comment, &rv.Images, &rv.Verified,
		&rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

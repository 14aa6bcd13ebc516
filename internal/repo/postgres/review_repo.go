package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("course already reviewed")
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

func (r *ReviewRepo) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if r.pool == nil {
		return model.Review{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO reviews (course_id, user_id, rating, comment, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING id, created_at, updated_at
`, rv.CourseID, rv.UserID, rv.Rating, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Review{}, ErrAlreadyReviewed
		}
		return model.Review{}, fmt.Errorf("insert review: %w", err)
	}

	return rv, nil
}

func (r *ReviewRepo) FindByID(ctx context.Context, id int64) (model.Review, error) {
	if r.pool == nil {
		return model.Review{}, fmt.Errorf("postgres pool is nil")
	}

	var rv model.Review
	err := r.pool.QueryRow(ctx, `
SELECT id, course_id, user_id, rating, comment, created_at, updated_at
FROM reviews
WHERE id = $1
`, id).Scan(&rv.ID, &rv.CourseID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, fmt.Errorf("find review: %w", err)
	}

	return rv, nil
}

func (r *ReviewRepo) ListByCourse(ctx context.Context, courseID int64, limit, offset int) ([]model.Review, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE course_id = $1`, courseID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, course_id, user_id, rating, comment, created_at, updated_at
FROM reviews
WHERE course_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, courseID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.CourseID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, total, nil
}

func (r *ReviewRepo) Update(ctx context.Context, rv model.Review) (model.Review, error) {
	if r.pool == nil {
		return model.Review{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
UPDATE reviews
SET rating = $2, comment = $3, updated_at = NOW()
WHERE id = $1
RETURNING course_id, user_id, created_at, updated_at
`, rv.ID, rv.Rating, rv.Comment).
		Scan(&rv.CourseID, &rv.UserID, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, fmt.Errorf("update review: %w", err)
	}

	return rv, nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReviewNotFound
	}

	return nil
}

func (r *ReviewRepo) RatingSummary(ctx context.Context, courseID int64) (float64, int, error) {
	if r.pool == nil {
		return 0, 0, fmt.Errorf("postgres pool is nil")
	}

	var avg float64
	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(AVG(rating), 0), COUNT(*)
FROM reviews
WHERE course_id = $1
`, courseID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("rating summary: %w", err)
	}

	return avg, count, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseRepo struct {
	pool *pgxpool.Pool
}

// CourseFilter narrows the public catalog listing. Zero values mean
// "no filter" for every field except Limit, which defaults to 20.
type CourseFilter struct {
	Category      string
	Level         string
	Search        string
	InstructorID  int64
	OnlyPublished bool
	Limit         int
	Offset        int
}

func NewCourseRepo(pool *pgxpool.Pool) *CourseRepo {
	return &CourseRepo{pool: pool}
}

const courseColumns = `
	id,
	instructor_id,
	title,
	description,
	category,
	level,
	price_cents,
	thumbnail_key,
	published,
	rating_avg,
	rating_count,
	created_at,
	updated_at`

func (r *CourseRepo) Create(ctx context.Context, c model.Course) (model.Course, error) {
	if r.pool == nil {
		return model.Course{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO courses (
	instructor_id, title, description, category, level, price_cents,
	thumbnail_key, published, rating_avg, rating_count, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, false, 0, 0, NOW(), NOW())
RETURNING id, published, rating_avg, rating_count, created_at, updated_at
`, c.InstructorID, c.Title, c.Description, c.Category, string(c.Level), c.PriceCents, c.ThumbnailKey).
		Scan(&c.ID, &c.Published, &c.RatingAvg, &c.RatingCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Course{}, fmt.Errorf("insert course: %w", err)
	}

	return c, nil
}

func (r *CourseRepo) FindByID(ctx context.Context, id int64) (model.Course, error) {
	if r.pool == nil {
		return model.Course{}, fmt.Errorf("postgres pool is nil")
	}

	return scanCourse(r.pool.QueryRow(ctx, `
SELECT`+courseColumns+`
FROM courses
WHERE id = $1
`, id))
}

func (r *CourseRepo) List(ctx context.Context, filter CourseFilter) ([]model.Course, int, error) {
	if r.pool == nil {
		return nil, 0, fmt.Errorf("postgres pool is nil")
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	where, args := buildCourseWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM courses`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := r.pool.Query(ctx, `
SELECT`+courseColumns+`
FROM courses`+where+fmt.Sprintf(`
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d
`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate courses: %w", err)
	}

	return courses, total, nil
}

func (r *CourseRepo) Update(ctx context.Context, c model.Course) (model.Course, error) {
	if r.pool == nil {
		return model.Course{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
UPDATE courses
SET
	title = $2,
	description = $3,
	category = $4,
	level = $5,
	price_cents = $6,
	thumbnail_key = $7,
	updated_at = NOW()
WHERE id = $1
RETURNING updated_at
`, c.ID, c.Title, c.Description, c.Category, string(c.Level), c.PriceCents, c.ThumbnailKey).
		Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Course{}, ErrCourseNotFound
		}
		return model.Course{}, fmt.Errorf("update course: %w", err)
	}

	return c, nil
}

func (r *CourseRepo) SetPublished(ctx context.Context, id int64, published bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE courses
SET published = $2, updated_at = NOW()
WHERE id = $1
`, id, published)
	if err != nil {
		return fmt.Errorf("set course published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepo) SetThumbnailKey(ctx context.Context, id int64, thumbnailKey string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE courses
SET thumbnail_key = $2, updated_at = NOW()
WHERE id = $1
`, id, thumbnailKey)
	if err != nil {
		return fmt.Errorf("set course thumbnail key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepo) UpdateRating(ctx context.Context, id int64, avg float64, count int) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE courses
SET rating_avg = $2, rating_count = $3, updated_at = NOW()
WHERE id = $1
`, id, avg, count)
	if err != nil {
		return fmt.Errorf("update course rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}

	return nil
}

func (r *CourseRepo) CountByInstructor(ctx context.Context, instructorID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM courses WHERE instructor_id = $1
`, instructorID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count courses by instructor: %w", err)
	}

	return total, nil
}

func buildCourseWhere(filter CourseFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.OnlyPublished {
		conds = append(conds, "published = true")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Level != "" {
		args = append(args, filter.Level)
		conds = append(conds, fmt.Sprintf("level = $%d", len(args)))
	}
	if filter.InstructorID > 0 {
		args = append(args, filter.InstructorID)
		conds = append(conds, fmt.Sprintf("instructor_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, "\n  AND "), args
}

func scanCourse(row pgx.Row) (model.Course, error) {
	var c model.Course
	var level string
	err := row.Scan(
		&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Category, &level,
		&c.PriceCents, &c.ThumbnailKey, &c.Published, &c.RatingAvg, &c.RatingCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Course{}, ErrCourseNotFound
		}
		return model.Course{}, fmt.Errorf("scan course: %w", err)
	}
	if lvl, ok := enums.ParseCourseLevel(level); ok {
		c.Level = lvl
	}
	return c, nil
}

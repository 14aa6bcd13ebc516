package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
)

var ErrLessonNotFound = errors.New("lesson not found")

type LessonRepo struct {
	pool *pgxpool.Pool
}

func NewLessonRepo(pool *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{pool: pool}
}

func (r *LessonRepo) Create(ctx context.Context, l model.Lesson) (model.Lesson, error) {
	if r.pool == nil {
		return model.Lesson{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO lessons (course_id, title, description, position, duration_sec, video_key, created_at, updated_at)
VALUES (
	$1, $2, $3,
	COALESCE((SELECT MAX(position) FROM lessons WHERE course_id = $1), 0) + 1,
	$4, $5, NOW(), NOW()
)
RETURNING id, position, created_at, updated_at
`, l.CourseID, l.Title, l.Description, l.DurationSec, l.VideoKey).
		Scan(&l.ID, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("insert lesson: %w", err)
	}

	return l, nil
}

func (r *LessonRepo) FindByID(ctx context.Context, id int64) (model.Lesson, error) {
	if r.pool == nil {
		return model.Lesson{}, fmt.Errorf("postgres pool is nil")
	}

	return scanLesson(r.pool.QueryRow(ctx, `
SELECT id, course_id, title, description, position, duration_sec, video_key, created_at, updated_at
FROM lessons
WHERE id = $1
`, id))
}

func (r *LessonRepo) ListByCourse(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, course_id, title, description, position, duration_sec, video_key, created_at, updated_at
FROM lessons
WHERE course_id = $1
ORDER BY position, id
`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}

	return lessons, nil
}

func (r *LessonRepo) Update(ctx context.Context, l model.Lesson) (model.Lesson, error) {
	if r.pool == nil {
		return model.Lesson{}, fmt.Errorf("postgres pool is nil")
	}

	err := r.pool.QueryRow(ctx, `
UPDATE lessons
SET title = $2, description = $3, duration_sec = $4, updated_at = NOW()
WHERE id = $1
RETURNING updated_at
`, l.ID, l.Title, l.Description, l.DurationSec).Scan(&l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Lesson{}, ErrLessonNotFound
		}
		return model.Lesson{}, fmt.Errorf("update lesson: %w", err)
	}

	return l, nil
}

func (r *LessonRepo) SetVideoKey(ctx context.Context, id int64, videoKey string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE lessons
SET video_key = $2, updated_at = NOW()
WHERE id = $1
`, id, videoKey)
	if err != nil {
		return fmt.Errorf("set lesson video key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLessonNotFound
	}

	return nil
}

func (r *LessonRepo) Delete(ctx context.Context, id int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLessonNotFound
	}

	return nil
}

func (r *LessonRepo) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lessons WHERE course_id = $1`, courseID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}

	return total, nil
}

func scanLesson(row pgx.Row) (model.Lesson, error) {
	var l model.Lesson
	err := row.Scan(
		&l.ID, &l.CourseID, &l.Title, &l.Description, &l.Position,
		&l.DurationSec, &l.VideoKey, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Lesson{}, ErrLessonNotFound
		}
		return model.Lesson{}, fmt.Errorf("scan lesson: %w", err)
	}
	return l, nil
}

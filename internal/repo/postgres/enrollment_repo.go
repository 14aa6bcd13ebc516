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
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled")
)

type EnrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) *EnrollmentRepo {
	return &EnrollmentRepo{pool: pool}
}

func (r *EnrollmentRepo) Create(ctx context.Context, userID, courseID int64) (model.Enrollment, error) {
	if r.pool == nil {
		return model.Enrollment{}, fmt.Errorf("postgres pool is nil")
	}

	e := model.Enrollment{UserID: userID, CourseID: courseID}
	err := r.pool.QueryRow(ctx, `
INSERT INTO enrollments (user_id, course_id, enrolled_at)
VALUES ($1, $2, NOW())
RETURNING id, enrolled_at
`, userID, courseID).Scan(&e.ID, &e.EnrolledAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Enrollment{}, ErrAlreadyEnrolled
		}
		return model.Enrollment{}, fmt.Errorf("insert enrollment: %w", err)
	}

	return e, nil
}

func (r *EnrollmentRepo) FindByUserAndCourse(ctx context.Context, userID, courseID int64) (model.Enrollment, error) {
	if r.pool == nil {
		return model.Enrollment{}, fmt.Errorf("postgres pool is nil")
	}

	var e model.Enrollment
	err := r.pool.QueryRow(ctx, `
SELECT id, user_id, course_id, enrolled_at
FROM enrollments
WHERE user_id = $1 AND course_id = $2
`, userID, courseID).Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Enrollment{}, ErrEnrollmentNotFound
		}
		return model.Enrollment{}, fmt.Errorf("find enrollment: %w", err)
	}

	return e, nil
}

func (r *EnrollmentRepo) Exists(ctx context.Context, userID, courseID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)
`, userID, courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}

	return exists, nil
}

func (r *EnrollmentRepo) ListByUser(ctx context.Context, userID int64) ([]model.Enrollment, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, course_id, enrolled_at
FROM enrollments
WHERE user_id = $1
ORDER BY enrolled_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	return enrollments, nil
}

func (r *EnrollmentRepo) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`, courseID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}

	return total, nil
}

func (r *EnrollmentRepo) CountByInstructor(ctx context.Context, instructorID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM enrollments e
JOIN courses c ON c.id = e.course_id
WHERE c.instructor_id = $1
`, instructorID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count enrollments by instructor: %w", err)
	}

	return total, nil
}

// MarkLessonComplete is idempotent: repeating a completed lesson keeps
// the original completion time.
func (r *EnrollmentRepo) MarkLessonComplete(ctx context.Context, enrollmentID, lessonID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO lesson_progress (enrollment_id, lesson_id, completed_at)
VALUES ($1, $2, NOW())
ON CONFLICT (enrollment_id, lesson_id) DO NOTHING
`, enrollmentID, lessonID)
	if err != nil {
		return fmt.Errorf("mark lesson complete: %w", err)
	}

	return nil
}

func (r *EnrollmentRepo) ListCompletedLessons(ctx context.Context, enrollmentID int64) ([]model.LessonProgress, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT enrollment_id, lesson_id, completed_at
FROM lesson_progress
WHERE enrollment_id = $1
ORDER BY completed_at, lesson_id
`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("list completed lessons: %w", err)
	}
	defer rows.Close()

	var progress []model.LessonProgress
	for rows.Next() {
		var p model.LessonProgress
		if err := rows.Scan(&p.EnrollmentID, &p.LessonID, &p.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan lesson progress: %w", err)
		}
		progress = append(progress, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson progress: %w", err)
	}

	return progress, nil
}

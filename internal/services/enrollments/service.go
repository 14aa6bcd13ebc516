package enrollments

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrLessonNotFound  = errors.New("lesson not found")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrPaidCourse      = errors.New("course requires payment")
)

type EnrollmentStore interface {
	Create(ctx context.Context, userID, courseID int64) (model.Enrollment, error)
	FindByUserAndCourse(ctx context.Context, userID, courseID int64) (model.Enrollment, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Enrollment, error)
	MarkLessonComplete(ctx context.Context, enrollmentID, lessonID int64) error
	ListCompletedLessons(ctx context.Context, enrollmentID int64) ([]model.LessonProgress, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (model.Course, error)
}

type LessonStore interface {
	FindByID(ctx context.Context, id int64) (model.Lesson, error)
	CountByCourse(ctx context.Context, courseID int64) (int, error)
}

type Service struct {
	enrollments EnrollmentStore
	courses     CourseStore
	lessons     LessonStore
}

// EnrollmentView is an enrollment joined with its course and the
// completion ratio used by the dashboard.
type EnrollmentView struct {
	Enrollment       model.Enrollment
	Course           model.Course
	LessonsTotal     int
	LessonsCompleted int
	ProgressPercent  int
}

func NewService(enrollments EnrollmentStore, courses CourseStore, lessons LessonStore) *Service {
	return &Service{
		enrollments: enrollments,
		courses:     courses,
		lessons:     lessons,
	}
}

// EnrollFree enrolls the caller directly into a free published course.
// Paid courses go through checkout; the webhook creates the enrollment.
func (s *Service) EnrollFree(ctx context.Context, identity auth.Identity, courseID int64) (model.Enrollment, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return model.Enrollment{}, err
	}
	if !course.Published {
		return model.Enrollment{}, ErrCourseNotFound
	}
	if !course.Free() {
		return model.Enrollment{}, ErrPaidCourse
	}

	enrollment, err := s.enrollments.Create(ctx, identity.UserID, courseID)
	if err != nil {
		if errors.Is(err, postgres.ErrAlreadyEnrolled) {
			return model.Enrollment{}, ErrAlreadyEnrolled
		}
		return model.Enrollment{}, fmt.Errorf("create enrollment: %w", err)
	}

	return enrollment, nil
}

func (s *Service) ListMine(ctx context.Context, identity auth.Identity) ([]EnrollmentView, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	views := make([]EnrollmentView, 0, len(enrollments))
	for _, e := range enrollments {
		course, err := s.courses.FindByID(ctx, e.CourseID)
		if err != nil {
			if errors.Is(err, postgres.ErrCourseNotFound) {
				continue
			}
			return nil, fmt.Errorf("find enrolled course: %w", err)
		}

		total, err := s.lessons.CountByCourse(ctx, e.CourseID)
		if err != nil {
			return nil, fmt.Errorf("count lessons: %w", err)
		}

		completed, err := s.enrollments.ListCompletedLessons(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("list completed lessons: %w", err)
		}

		view := EnrollmentView{
			Enrollment:       e,
			Course:           course,
			LessonsTotal:     total,
			LessonsCompleted: len(completed),
		}
		if total > 0 {
			view.ProgressPercent = len(completed) * 100 / total
		}
		views = append(views, view)
	}

	return views, nil
}

// CompleteLesson records progress. The caller must be enrolled in the
// lesson's course; owners previewing their own content have no
// enrollment row and therefore no progress to record.
func (s *Service) CompleteLesson(ctx context.Context, identity auth.Identity, lessonID int64) error {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, postgres.ErrLessonNotFound) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("find lesson: %w", err)
	}

	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, identity.UserID, lesson.CourseID)
	if err != nil {
		if errors.Is(err, postgres.ErrEnrollmentNotFound) {
			return authz.ErrForbidden
		}
		return fmt.Errorf("find enrollment: %w", err)
	}

	if err := s.enrollments.MarkLessonComplete(ctx, enrollment.ID, lessonID); err != nil {
		return fmt.Errorf("mark lesson complete: %w", err)
	}

	return nil
}

func (s *Service) findCourse(ctx context.Context, courseID int64) (model.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return model.Course{}, ErrCourseNotFound
		}
		return model.Course{}, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

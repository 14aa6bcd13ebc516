package lessons

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/validate"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
)

var (
	ErrNotFound       = errors.New("lesson not found")
	ErrCourseNotFound = errors.New("course not found")
	ErrValidation     = errors.New("validation error")
	ErrNoVideo        = errors.New("lesson has no video")
)

const videoURLTTL = 15 * time.Minute

type LessonStore interface {
	Create(ctx context.Context, l model.Lesson) (model.Lesson, error)
	FindByID(ctx context.Context, id int64) (model.Lesson, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.Lesson, error)
	Update(ctx context.Context, l model.Lesson) (model.Lesson, error)
	SetVideoKey(ctx context.Context, id int64, videoKey string) error
	Delete(ctx context.Context, id int64) error
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (model.Course, error)
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	lessons LessonStore
	courses CourseStore
	policy  *authz.Policy
	storage ObjectStorage
}

type CreateInput struct {
	Title       string
	Description string
	DurationSec int
}

func NewService(lessons LessonStore, courses CourseStore, policy *authz.Policy, storage ObjectStorage) *Service {
	return &Service{
		lessons: lessons,
		courses: courses,
		policy:  policy,
		storage: storage,
	}
}

// ListByCourse is public lesson metadata; the video itself stays
// behind the enrollment gate.
func (s *Service) ListByCourse(ctx context.Context, courseID int64) ([]model.Lesson, error) {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return nil, err
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	return lessons, nil
}

func (s *Service) Create(ctx context.Context, identity auth.Identity, courseID int64, in CreateInput) (model.Lesson, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return model.Lesson{}, err
	}
	if !s.policy.CanManageCourse(identity, course) {
		return model.Lesson{}, authz.ErrForbidden
	}
	if !validate.Required(in.Title) || in.DurationSec < 0 {
		return model.Lesson{}, ErrValidation
	}

	lesson, err := s.lessons.Create(ctx, model.Lesson{
		CourseID:    courseID,
		Title:       in.Title,
		Description: in.Description,
		DurationSec: in.DurationSec,
	})
	if err != nil {
		return model.Lesson{}, fmt.Errorf("create lesson: %w", err)
	}

	return lesson, nil
}

func (s *Service) Update(ctx context.Context, identity auth.Identity, lessonID int64, in CreateInput) (model.Lesson, error) {
	lesson, course, err := s.findLessonWithCourse(ctx, lessonID)
	if err != nil {
		return model.Lesson{}, err
	}
	if !s.policy.CanManageCourse(identity, course) {
		return model.Lesson{}, authz.ErrForbidden
	}
	if !validate.Required(in.Title) || in.DurationSec < 0 {
		return model.Lesson{}, ErrValidation
	}

	lesson.Title = in.Title
	lesson.Description = in.Description
	lesson.DurationSec = in.DurationSec

	updated, err := s.lessons.Update(ctx, lesson)
	if err != nil {
		if errors.Is(err, postgres.ErrLessonNotFound) {
			return model.Lesson{}, ErrNotFound
		}
		return model.Lesson{}, fmt.Errorf("update lesson: %w", err)
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, identity auth.Identity, lessonID int64) error {
	lesson, course, err := s.findLessonWithCourse(ctx, lessonID)
	if err != nil {
		return err
	}
	if !s.policy.CanManageCourse(identity, course) {
		return authz.ErrForbidden
	}

	if err := s.lessons.Delete(ctx, lessonID); err != nil {
		if errors.Is(err, postgres.ErrLessonNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete lesson: %w", err)
	}

	if s.storage != nil && lesson.VideoKey != "" {
		_ = s.storage.Delete(ctx, lesson.VideoKey)
	}

	return nil
}

// UploadVideo stores the file under a fresh uuid key and points the
// lesson at it. The previous object, if any, is removed best-effort.
func (s *Service) UploadVideo(ctx context.Context, identity auth.Identity, lessonID int64, body io.Reader, size int64, contentType string) error {
	lesson, course, err := s.findLessonWithCourse(ctx, lessonID)
	if err != nil {
		return err
	}
	if !s.policy.CanManageCourse(identity, course) {
		return authz.ErrForbidden
	}
	if body == nil || size <= 0 {
		return ErrValidation
	}
	if s.storage == nil {
		return fmt.Errorf("object storage is not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	key := "videos/" + uuid.NewString()
	if err := s.storage.Put(ctx, key, body, size, contentType); err != nil {
		return fmt.Errorf("upload video: %w", err)
	}

	if err := s.lessons.SetVideoKey(ctx, lessonID, key); err != nil {
		_ = s.storage.Delete(ctx, key)
		if errors.Is(err, postgres.ErrLessonNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set video key: %w", err)
	}

	if lesson.VideoKey != "" {
		_ = s.storage.Delete(ctx, lesson.VideoKey)
	}

	return nil
}

// VideoURL returns a short-lived presigned URL. Enrollment is checked
// through the parent course; the owner and admins may preview.
func (s *Service) VideoURL(ctx context.Context, identity auth.Identity, lessonID int64) (string, error) {
	lesson, course, err := s.findLessonWithCourse(ctx, lessonID)
	if err != nil {
		return "", err
	}

	allowed, err := s.policy.CanAccessCourseContent(ctx, identity, course)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", authz.ErrForbidden
	}

	if lesson.VideoKey == "" {
		return "", ErrNoVideo
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	url, err := s.storage.PresignGet(ctx, lesson.VideoKey, videoURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign video: %w", err)
	}

	return url, nil
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

func (s *Service) findLessonWithCourse(ctx context.Context, lessonID int64) (model.Lesson, model.Course, error) {
	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, postgres.ErrLessonNotFound) {
			return model.Lesson{}, model.Course{}, ErrNotFound
		}
		return model.Lesson{}, model.Course{}, fmt.Errorf("find lesson: %w", err)
	}

	course, err := s.findCourse(ctx, lesson.CourseID)
	if err != nil {
		return model.Lesson{}, model.Course{}, err
	}

	return lesson, course, nil
}

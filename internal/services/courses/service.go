package courses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/cache"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/validate"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
)

var (
	ErrNotFound    = errors.New("course not found")
	ErrValidation  = errors.New("validation error")
	ErrNoThumbnail = errors.New("course has no thumbnail")
)

const (
	listCachePrefix = "courses:list:"
	thumbnailURLTTL = time.Hour
)

type CourseStore interface {
	Create(ctx context.Context, c model.Course) (model.Course, error)
	FindByID(ctx context.Context, id int64) (model.Course, error)
	List(ctx context.Context, filter postgres.CourseFilter) ([]model.Course, int, error)
	Update(ctx context.Context, c model.Course) (model.Course, error)
	SetPublished(ctx context.Context, id int64, published bool) error
	SetThumbnailKey(ctx context.Context, id int64, thumbnailKey string) error
	Delete(ctx context.Context, id int64) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store   CourseStore
	policy  *authz.Policy
	cache   *cache.Cache
	storage ObjectStorage
}

type ListResult struct {
	Courses []model.Course
	Total   int
}

type CreateInput struct {
	Title       string
	Description string
	Category    string
	Level       enums.CourseLevel
	PriceCents  int64
}

func NewService(store CourseStore, policy *authz.Policy, listCache *cache.Cache, storage ObjectStorage) *Service {
	return &Service{
		store:   store,
		policy:  policy,
		cache:   listCache,
		storage: storage,
	}
}

// List serves the public catalog. Only published courses are visible
// here regardless of the caller; owners see their drafts through
// ListByInstructor. Results are cached per filter combination.
func (s *Service) List(ctx context.Context, filter postgres.CourseFilter) (ListResult, error) {
	filter.OnlyPublished = true

	key := listCacheKey(filter)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if result, ok := cached.(ListResult); ok {
				return result, nil
			}
		}
	}

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("list courses: %w", err)
	}

	result := ListResult{Courses: items, Total: total}
	if s.cache != nil {
		s.cache.Set(key, result, 0)
	}

	return result, nil
}

// ListByInstructor returns the instructor's own catalog, drafts
// included. Admins may inspect any instructor.
func (s *Service) ListByInstructor(ctx context.Context, identity auth.Identity, instructorID int64) (ListResult, error) {
	if identity.Role != enums.RoleAdmin && identity.UserID != instructorID {
		return ListResult{}, authz.ErrForbidden
	}

	items, total, err := s.store.List(ctx, postgres.CourseFilter{InstructorID: instructorID, Limit: 100})
	if err != nil {
		return ListResult{}, fmt.Errorf("list instructor courses: %w", err)
	}

	return ListResult{Courses: items, Total: total}, nil
}

// Get checks existence before visibility: a missing course is
// not-found for everyone, an existing draft is forbidden to anyone who
// cannot manage it.
func (s *Service) Get(ctx context.Context, identity auth.Identity, id int64) (model.Course, error) {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return model.Course{}, err
	}

	if !s.policy.CanViewCourse(identity, course) {
		return model.Course{}, authz.ErrForbidden
	}

	return course, nil
}

func (s *Service) Create(ctx context.Context, identity auth.Identity, in CreateInput) (model.Course, error) {
	if !validate.Required(in.Title) || !in.Level.Valid() || in.PriceCents < 0 {
		return model.Course{}, ErrValidation
	}

	course, err := s.store.Create(ctx, model.Course{
		InstructorID: identity.UserID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		Level:        in.Level,
		PriceCents:   in.PriceCents,
	})
	if err != nil {
		return model.Course{}, fmt.Errorf("create course: %w", err)
	}

	s.invalidateListings()
	return course, nil
}

func (s *Service) Update(ctx context.Context, identity auth.Identity, id int64, in CreateInput) (model.Course, error) {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return model.Course{}, err
	}
	if !s.policy.CanManageCourse(identity, course) {
		return model.Course{}, authz.ErrForbidden
	}
	if !validate.Required(in.Title) || !in.Level.Valid() || in.PriceCents < 0 {
		return model.Course{}, ErrValidation
	}

	course.Title = strings.TrimSpace(in.Title)
	course.Description = strings.TrimSpace(in.Description)
	course.Category = strings.TrimSpace(in.Category)
	course.Level = in.Level
	course.PriceCents = in.PriceCents

	updated, err := s.store.Update(ctx, course)
	if err != nil {
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return model.Course{}, ErrNotFound
		}
		return model.Course{}, fmt.Errorf("update course: %w", err)
	}

	s.invalidateListings()
	return updated, nil
}

func (s *Service) SetPublished(ctx context.Context, identity auth.Identity, id int64, published bool) error {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.CanManageCourse(identity, course) {
		return authz.ErrForbidden
	}

	if err := s.store.SetPublished(ctx, id, published); err != nil {
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set course published: %w", err)
	}

	s.invalidateListings()
	return nil
}

func (s *Service) Delete(ctx context.Context, identity auth.Identity, id int64) error {
	course, err := s.findCourse(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.CanManageCourse(identity, course) {
		return authz.ErrForbidden
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete course: %w", err)
	}

	s.invalidateListings()
	return nil
}

// UploadThumbnail stores catalog imagery under a fresh uuid key. The
// previous object, if any, is removed best-effort.
func (s *Service) UploadThumbnail(ctx context.Context, identity auth.Identity, id int64, body io.Reader, size int64, contentType string) error {
	course, err := s.findCourse(ctx, id)
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

	key := "thumbnails/" + uuid.NewString()
	if err := s.storage.Put(ctx, key, body, size, contentType); err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}

	if err := s.store.SetThumbnailKey(ctx, id, key); err != nil {
		_ = s.storage.Delete(ctx, key)
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set thumbnail key: %w", err)
	}

	if course.ThumbnailKey != "" {
		_ = s.storage.Delete(ctx, course.ThumbnailKey)
	}

	return nil
}

// ThumbnailURL follows the same visibility rule as Get: anyone may see
// a published course's thumbnail, drafts show only to managers.
func (s *Service) ThumbnailURL(ctx context.Context, identity auth.Identity, id int64) (string, error) {
	course, err := s.Get(ctx, identity, id)
	if err != nil {
		return "", err
	}
	if course.ThumbnailKey == "" {
		return "", ErrNoThumbnail
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	url, err := s.storage.PresignGet(ctx, course.ThumbnailKey, thumbnailURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign thumbnail: %w", err)
	}

	return url, nil
}

func (s *Service) findCourse(ctx context.Context, id int64) (model.Course, error) {
	course, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return model.Course{}, ErrNotFound
		}
		return model.Course{}, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

func (s *Service) invalidateListings() {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeletePattern("^" + listCachePrefix)
}

func listCacheKey(f postgres.CourseFilter) string {
	return fmt.Sprintf("%s%s|%s|%s|%d|%d|%d",
		listCachePrefix, f.Category, f.Level, f.Search, f.InstructorID, f.Limit, f.Offset)
}

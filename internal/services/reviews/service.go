package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/pkg/validate"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrCourseNotFound  = errors.New("course not found")
	ErrValidation      = errors.New("validation error")
	ErrAlreadyReviewed = errors.New("course already reviewed")
)

type ReviewStore interface {
	Create(ctx context.Context, rv model.Review) (model.Review, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	ListByCourse(ctx context.Context, courseID int64, limit, offset int) ([]model.Review, int, error)
	Update(ctx context.Context, rv model.Review) (model.Review, error)
	Delete(ctx context.Context, id int64) error
	RatingSummary(ctx context.Context, courseID int64) (float64, int, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (model.Course, error)
	UpdateRating(ctx context.Context, id int64, avg float64, count int) error
}

type EnrollmentStore interface {
	Exists(ctx context.Context, userID, courseID int64) (bool, error)
}

type Service struct {
	reviews     ReviewStore
	courses     CourseStore
	enrollments EnrollmentStore
	policy      *authz.Policy
}

type ListResult struct {
	Reviews []model.Review
	Total   int
}

func NewService(reviews ReviewStore, courses CourseStore, enrollments EnrollmentStore, policy *authz.Policy) *Service {
	return &Service{
		reviews:     reviews,
		courses:     courses,
		enrollments: enrollments,
		policy:      policy,
	}
}

func (s *Service) ListByCourse(ctx context.Context, courseID int64, limit, offset int) (ListResult, error) {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return ListResult{}, err
	}

	items, total, err := s.reviews.ListByCourse(ctx, courseID, limit, offset)
	if err != nil {
		return ListResult{}, fmt.Errorf("list reviews: %w", err)
	}

	return ListResult{Reviews: items, Total: total}, nil
}

// Create requires an enrollment: only people who bought (or claimed)
// the course may rate it, once each.
func (s *Service) Create(ctx context.Context, identity auth.Identity, courseID int64, rating int, comment string) (model.Review, error) {
	if _, err := s.findCourse(ctx, courseID); err != nil {
		return model.Review{}, err
	}

	enrolled, err := s.enrollments.Exists(ctx, identity.UserID, courseID)
	if err != nil {
		return model.Review{}, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return model.Review{}, authz.ErrForbidden
	}

	if !validate.Rating(rating) {
		return model.Review{}, ErrValidation
	}

	review, err := s.reviews.Create(ctx, model.Review{
		CourseID: courseID,
		UserID:   identity.UserID,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
	})
	if err != nil {
		if errors.Is(err, postgres.ErrAlreadyReviewed) {
			return model.Review{}, ErrAlreadyReviewed
		}
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}

	if err := s.refreshCourseRating(ctx, courseID); err != nil {
		return model.Review{}, err
	}

	return review, nil
}

func (s *Service) Update(ctx context.Context, identity auth.Identity, reviewID int64, rating int, comment string) (model.Review, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return model.Review{}, err
	}
	if !s.policy.CanEditReview(identity, review) {
		return model.Review{}, authz.ErrForbidden
	}
	if !validate.Rating(rating) {
		return model.Review{}, ErrValidation
	}

	review.Rating = rating
	review.Comment = strings.TrimSpace(comment)

	updated, err := s.reviews.Update(ctx, review)
	if err != nil {
		if errors.Is(err, postgres.ErrReviewNotFound) {
			return model.Review{}, ErrNotFound
		}
		return model.Review{}, fmt.Errorf("update review: %w", err)
	}

	if err := s.refreshCourseRating(ctx, updated.CourseID); err != nil {
		return model.Review{}, err
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, identity auth.Identity, reviewID int64) error {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if !s.policy.CanDeleteReview(identity, review) {
		return authz.ErrForbidden
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, postgres.ErrReviewNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}

	return s.refreshCourseRating(ctx, review.CourseID)
}

func (s *Service) refreshCourseRating(ctx context.Context, courseID int64) error {
	avg, count, err := s.reviews.RatingSummary(ctx, courseID)
	if err != nil {
		return fmt.Errorf("rating summary: %w", err)
	}
	if err := s.courses.UpdateRating(ctx, courseID, avg, count); err != nil {
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return nil
		}
		return fmt.Errorf("update course rating: %w", err)
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

func (s *Service) findReview(ctx context.Context, reviewID int64) (model.Review, error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, postgres.ErrReviewNotFound) {
			return model.Review{}, ErrNotFound
		}
		return model.Review{}, fmt.Errorf("find review: %w", err)
	}
	return review, nil
}

package analytics

import (
	"context"
	"fmt"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
)

type CourseStore interface {
	CountByInstructor(ctx context.Context, instructorID int64) (int, error)
	List(ctx context.Context, filter postgres.CourseFilter) ([]model.Course, int, error)
}

type EnrollmentStore interface {
	CountByInstructor(ctx context.Context, instructorID int64) (int, error)
}

type PaymentStore interface {
	RevenueCentsByInstructor(ctx context.Context, instructorID int64) (int64, error)
}

type Service struct {
	courses     CourseStore
	enrollments EnrollmentStore
	payments    PaymentStore
}

type InstructorStats struct {
	InstructorID  int64   `json:"instructor_id"`
	CourseCount   int     `json:"course_count"`
	StudentCount  int     `json:"student_count"`
	RevenueCents  int64   `json:"revenue_cents"`
	AverageRating float64 `json:"average_rating"`
}

func NewService(courses CourseStore, enrollments EnrollmentStore, payments PaymentStore) *Service {
	return &Service{
		courses:     courses,
		enrollments: enrollments,
		payments:    payments,
	}
}

// InstructorStats aggregates an instructor's dashboard numbers.
// Instructors see their own; admins may query anyone.
func (s *Service) InstructorStats(ctx context.Context, identity auth.Identity, instructorID int64) (InstructorStats, error) {
	if identity.Role != enums.RoleAdmin && identity.UserID != instructorID {
		return InstructorStats{}, authz.ErrForbidden
	}

	courseCount, err := s.courses.CountByInstructor(ctx, instructorID)
	if err != nil {
		return InstructorStats{}, fmt.Errorf("count courses: %w", err)
	}

	studentCount, err := s.enrollments.CountByInstructor(ctx, instructorID)
	if err != nil {
		return InstructorStats{}, fmt.Errorf("count students: %w", err)
	}

	revenue, err := s.payments.RevenueCentsByInstructor(ctx, instructorID)
	if err != nil {
		return InstructorStats{}, fmt.Errorf("sum revenue: %w", err)
	}

	courses, _, err := s.courses.List(ctx, postgres.CourseFilter{InstructorID: instructorID, Limit: 1000})
	if err != nil {
		return InstructorStats{}, fmt.Errorf("list courses for rating: %w", err)
	}

	var ratingSum float64
	var rated int
	for _, c := range courses {
		if c.RatingCount > 0 {
			ratingSum += c.RatingAvg
			rated++
		}
	}

	stats := InstructorStats{
		InstructorID: instructorID,
		CourseCount:  courseCount,
		StudentCount: studentCount,
		RevenueCents: revenue,
	}
	if rated > 0 {
		stats.AverageRating = ratingSum / float64(rated)
	}

	return stats, nil
}

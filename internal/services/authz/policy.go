package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
)

// ErrForbidden is returned for every authorization failure after the
// resource is known to exist. Callers map it to 403; existence is
// revealed on purpose, missing resources surface as not-found before
// any permission check runs.
var ErrForbidden = errors.New("forbidden")

type EnrollmentStore interface {
	Exists(ctx context.Context, userID, courseID int64) (bool, error)
}

type Policy struct {
	enrollments EnrollmentStore
}

func NewPolicy(enrollments EnrollmentStore) *Policy {
	return &Policy{enrollments: enrollments}
}

// CanManageCourse allows the owning instructor and any admin.
func (p *Policy) CanManageCourse(identity auth.Identity, course model.Course) bool {
	if identity.Role == enums.RoleAdmin {
		return true
	}
	return course.InstructorID == identity.UserID
}

// CanAccessCourseContent gates paid content (videos, progress,
// reviews). Enrollment grants access; the owner and admins bypass it
// so they can preview their own material.
func (p *Policy) CanAccessCourseContent(ctx context.Context, identity auth.Identity, course model.Course) (bool, error) {
	if p.CanManageCourse(identity, course) {
		return true, nil
	}

	enrolled, err := p.enrollments.Exists(ctx, identity.UserID, course.ID)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

// CanViewCourse decides whether an unpublished course is visible.
// Published courses are public; drafts only show to whoever could
// manage them.
func (p *Policy) CanViewCourse(identity auth.Identity, course model.Course) bool {
	if course.Published {
		return true
	}
	return p.CanManageCourse(identity, course)
}

func (p *Policy) CanEditReview(identity auth.Identity, review model.Review) bool {
	return review.UserID == identity.UserID
}

func (p *Policy) CanDeleteReview(identity auth.Identity, review model.Review) bool {
	if identity.Role == enums.RoleAdmin {
		return true
	}
	return review.UserID == identity.UserID
}

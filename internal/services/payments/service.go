package payments

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
)

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrFreeCourse      = errors.New("course is free")
	ErrAlreadyEnrolled = errors.New("already enrolled")
	ErrBadSignature    = errors.New("webhook signature mismatch")
	ErrUnknownStatus   = errors.New("unknown webhook status")
)

type PaymentStore interface {
	CreatePending(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByReference(ctx context.Context, reference string) (model.Payment, error)
	SettleByReferenceTx(ctx context.Context, reference string, status enums.PaymentStatus) (model.Payment, bool, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Payment, error)
}

type CourseStore interface {
	FindByID(ctx context.Context, id int64) (model.Course, error)
}

type EnrollmentStore interface {
	Exists(ctx context.Context, userID, courseID int64) (bool, error)
}

type Service struct {
	payments      PaymentStore
	courses       CourseStore
	enrollments   EnrollmentStore
	webhookSecret string
}

func NewService(payments PaymentStore, courses CourseStore, enrollments EnrollmentStore, webhookSecret string) *Service {
	return &Service{
		payments:      payments,
		courses:       courses,
		enrollments:   enrollments,
		webhookSecret: webhookSecret,
	}
}

// Checkout records a pending payment and hands back the provider
// reference the client completes the payment under. Free courses never
// reach here; they enroll directly.
func (s *Service) Checkout(ctx context.Context, identity auth.Identity, courseID int64) (model.Payment, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, postgres.ErrCourseNotFound) {
			return model.Payment{}, ErrCourseNotFound
		}
		return model.Payment{}, fmt.Errorf("find course: %w", err)
	}
	if !course.Published {
		return model.Payment{}, ErrCourseNotFound
	}
	if course.Free() {
		return model.Payment{}, ErrFreeCourse
	}

	enrolled, err := s.enrollments.Exists(ctx, identity.UserID, courseID)
	if err != nil {
		return model.Payment{}, fmt.Errorf("check enrollment: %w", err)
	}
	if enrolled {
		return model.Payment{}, ErrAlreadyEnrolled
	}

	payment, err := s.payments.CreatePending(ctx, model.Payment{
		UserID:      identity.UserID,
		CourseID:    courseID,
		AmountCents: course.PriceCents,
		Reference:   uuid.NewString(),
	})
	if err != nil {
		return model.Payment{}, fmt.Errorf("create pending payment: %w", err)
	}

	return payment, nil
}

// ConfirmWebhook settles a payment by provider reference. The
// signature is a shared secret compared in constant time. Redelivery
// is safe: a settled payment is acknowledged without side effects.
func (s *Service) ConfirmWebhook(ctx context.Context, signature, reference, status string) (model.Payment, error) {
	if s.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(signature), []byte(s.webhookSecret)) != 1 {
		return model.Payment{}, ErrBadSignature
	}

	var target enums.PaymentStatus
	switch status {
	case "paid":
		target = enums.PaymentStatusPaid
	case "failed":
		target = enums.PaymentStatusFailed
	default:
		return model.Payment{}, ErrUnknownStatus
	}

	payment, _, err := s.payments.SettleByReferenceTx(ctx, reference, target)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return model.Payment{}, ErrPaymentNotFound
		}
		return model.Payment{}, fmt.Errorf("settle payment: %w", err)
	}

	return payment, nil
}

func (s *Service) ListMine(ctx context.Context, identity auth.Identity) ([]model.Payment, error) {
	payments, err := s.payments.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

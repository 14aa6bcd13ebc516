package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	paymentsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/payments"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
)

const testWebhookSecret = "hook-secret"

type fakePaymentStore struct {
	byReference map[string]model.Payment
	enrollments int
	nextID      int64
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{byReference: make(map[string]model.Payment), nextID: 1}
}

func (s *fakePaymentStore) CreatePending(_ context.Context, p model.Payment) (model.Payment, error) {
	if _, ok := s.byReference[p.Reference]; ok {
		return model.Payment{}, postgres.ErrDuplicateReference
	}
	p.ID = s.nextID
	s.nextID++
	p.Status = enums.PaymentStatusPending
	s.byReference[p.Reference] = p
	return p, nil
}

func (s *fakePaymentStore) FindByReference(_ context.Context, reference string) (model.Payment, error) {
	p, ok := s.byReference[reference]
	if !ok {
		return model.Payment{}, postgres.ErrPaymentNotFound
	}
	return p, nil
}

func (s *fakePaymentStore) SettleByReferenceTx(_ context.Context, reference string, status enums.PaymentStatus) (model.Payment, bool, error) {
	p, ok := s.byReference[reference]
	if !ok {
		return model.Payment{}, false, postgres.ErrPaymentNotFound
	}
	if p.Status != enums.PaymentStatusPending {
		return p, false, nil
	}
	p.Status = status
	s.byReference[reference] = p
	if status == enums.PaymentStatusPaid {
		s.enrollments++
	}
	return p, true, nil
}

func (s *fakePaymentStore) ListByUser(_ context.Context, userID int64) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range s.byReference {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func newPaymentHandlerForTest(payments *fakePaymentStore, courses *fakeCourseStore, enrolled enrollmentSet) *PaymentHandler {
	if enrolled == nil {
		enrolled = enrollmentSet{}
	}
	return NewPaymentHandler(paymentsvc.NewService(payments, courses, enrolled, testWebhookSecret))
}

func postCheckout(t *testing.T, handler *PaymentHandler, userID int64) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/courses/1/checkout", nil)
	ctx := withURLParam(req.Context(), "courseID", "1")
	req = req.WithContext(withIdentity(ctx, userID, enums.RoleStudent))

	rr := httptest.NewRecorder()
	handler.Checkout(rr, req)
	return rr
}

func postWebhook(t *testing.T, handler *PaymentHandler, signature, reference, status string) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(dto.WebhookRequest{Reference: reference, Status: status})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(webhookSignatureHeader, signature)
	}

	rr := httptest.NewRecorder()
	handler.Webhook(rr, req)
	return rr
}

func TestCheckoutFreeCourseRejected(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true, PriceCents: 0})
	handler := newPaymentHandlerForTest(newFakePaymentStore(), courses, nil)

	if rr := postCheckout(t, handler, 20); rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCheckoutCreatesPendingPayment(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true, PriceCents: 4900})
	handler := newPaymentHandlerForTest(newFakePaymentStore(), courses, nil)

	rr := postCheckout(t, handler, 20)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var payload dto.PaymentResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Reference == "" {
		t.Fatalf("expected a provider reference")
	}
	if payload.Status != string(enums.PaymentStatusPending) {
		t.Fatalf("expected pending payment, got %q", payload.Status)
	}
	if payload.AmountCents != 4900 {
		t.Fatalf("expected amount 4900, got %d", payload.AmountCents)
	}
}

func TestCheckoutWhenAlreadyEnrolledConflicts(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true, PriceCents: 4900})
	enrolled := enrollmentSet{{20, 1}: true}
	handler := newPaymentHandlerForTest(newFakePaymentStore(), courses, enrolled)

	if rr := postCheckout(t, handler, 20); rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusConflict)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true, PriceCents: 4900})
	handler := newPaymentHandlerForTest(newFakePaymentStore(), courses, nil)

	if rr := postWebhook(t, handler, "wrong", "ref-1", "paid"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
	if rr := postWebhook(t, handler, "", "ref-1", "paid"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing signature: got %d want %d", rr.Code, http.StatusUnauthorized)
	}
}

// Redelivery of a settled payment is acknowledged without enrolling
// the student a second time.
func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true, PriceCents: 4900})
	payments := newFakePaymentStore()
	handler := newPaymentHandlerForTest(payments, courses, nil)

	rr := postCheckout(t, handler, 20)
	if rr.Code != http.StatusCreated {
		t.Fatalf("checkout: got %d", rr.Code)
	}
	var created dto.PaymentResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode checkout response: %v", err)
	}

	for i := 0; i < 2; i++ {
		rr := postWebhook(t, handler, testWebhookSecret, created.Reference, "paid")
		if rr.Code != http.StatusOK {
			t.Fatalf("delivery %d: got %d want %d, body %s", i+1, rr.Code, http.StatusOK, rr.Body.String())
		}
	}

	if payments.enrollments != 1 {
		t.Fatalf("expected exactly one enrollment, got %d", payments.enrollments)
	}
}

func TestWebhookUnknownStatusRejected(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true, PriceCents: 4900})
	handler := newPaymentHandlerForTest(newFakePaymentStore(), courses, nil)

	if rr := postWebhook(t, handler, testWebhookSecret, "ref-1", "refunded"); rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

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
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
	reviewsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/reviews"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
)

type fakeReviewStore struct {
	reviews map[int64]model.Review
	nextID  int64
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: make(map[int64]model.Review), nextID: 1}
}

func (s *fakeReviewStore) Create(_ context.Context, rv model.Review) (model.Review, error) {
	for _, existing := range s.reviews {
		if existing.UserID == rv.UserID && existing.CourseID == rv.CourseID {
			return model.Review{}, postgres.ErrAlreadyReviewed
		}
	}
	rv.ID = s.nextID
	s.nextID++
	s.reviews[rv.ID] = rv
	return rv, nil
}

func (s *fakeReviewStore) FindByID(_ context.Context, id int64) (model.Review, error) {
	rv, ok := s.reviews[id]
	if !ok {
		return model.Review{}, postgres.ErrReviewNotFound
	}
	return rv, nil
}

func (s *fakeReviewStore) ListByCourse(_ context.Context, courseID int64, _, _ int) ([]model.Review, int, error) {
	var out []model.Review
	for _, rv := range s.reviews {
		if rv.CourseID == courseID {
			out = append(out, rv)
		}
	}
	return out, len(out), nil
}

func (s *fakeReviewStore) Update(_ context.Context, rv model.Review) (model.Review, error) {
	if _, ok := s.reviews[rv.ID]; !ok {
		return model.Review{}, postgres.ErrReviewNotFound
	}
	s.reviews[rv.ID] = rv
	return rv, nil
}

func (s *fakeReviewStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.reviews[id]; !ok {
		return postgres.ErrReviewNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *fakeReviewStore) RatingSummary(_ context.Context, courseID int64) (float64, int, error) {
	var sum, count int
	for _, rv := range s.reviews {
		if rv.CourseID == courseID {
			sum += rv.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func newReviewHandlerForTest(courses *fakeCourseStore, reviews *fakeReviewStore, enrolled enrollmentSet) *ReviewHandler {
	if enrolled == nil {
		enrolled = enrollmentSet{}
	}
	policy := authz.NewPolicy(enrolled)
	return NewReviewHandler(reviewsvc.NewService(reviews, courses, enrolled, policy))
}

func postReview(t *testing.T, handler *ReviewHandler, userID int64, rating int) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(dto.ReviewRequest{Rating: rating, Comment: "solid"})
	req := httptest.NewRequest(http.MethodPost, "/courses/1/reviews", bytes.NewReader(body))
	ctx := withURLParam(req.Context(), "courseID", "1")
	req = req.WithContext(withIdentity(ctx, userID, enums.RoleStudent))

	rr := httptest.NewRecorder()
	handler.Create(rr, req)
	return rr
}

func TestCreateReviewWithoutEnrollmentIsForbidden(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true})
	handler := newReviewHandlerForTest(courses, newFakeReviewStore(), nil)

	rr := postReview(t, handler, 20, 5)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}
}

func TestCreateReviewUpdatesCourseRating(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true})
	enrolled := enrollmentSet{{20, 1}: true}
	handler := newReviewHandlerForTest(courses, newFakeReviewStore(), enrolled)

	rr := postReview(t, handler, 20, 4)

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if got := courses.courses[1].RatingAvg; got != 4 {
		t.Fatalf("expected rating avg 4, got %v", got)
	}
	if got := courses.courses[1].RatingCount; got != 1 {
		t.Fatalf("expected rating count 1, got %d", got)
	}
}

func TestSecondReviewForSameCourseConflicts(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true})
	enrolled := enrollmentSet{{20, 1}: true}
	handler := newReviewHandlerForTest(courses, newFakeReviewStore(), enrolled)

	if rr := postReview(t, handler, 20, 4); rr.Code != http.StatusCreated {
		t.Fatalf("first review: got %d want %d", rr.Code, http.StatusCreated)
	}
	if rr := postReview(t, handler, 20, 5); rr.Code != http.StatusConflict {
		t.Fatalf("second review: got %d want %d", rr.Code, http.StatusConflict)
	}
}

func TestReviewWithOutOfRangeRatingIsRejected(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true})
	enrolled := enrollmentSet{{20, 1}: true}
	handler := newReviewHandlerForTest(courses, newFakeReviewStore(), enrolled)

	if rr := postReview(t, handler, 20, 6); rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDeleteReviewByAdmin(t *testing.T) {
	courses := newFakeCourseStore(model.Course{ID: 1, InstructorID: 10, Published: true})
	reviews := newFakeReviewStore()
	enrolled := enrollmentSet{{20, 1}: true}
	handler := newReviewHandlerForTest(courses, reviews, enrolled)

	if rr := postReview(t, handler, 20, 2); rr.Code != http.StatusCreated {
		t.Fatalf("seed review: got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/reviews/1", nil)
	ctx := withURLParam(req.Context(), "reviewID", "1")
	req = req.WithContext(withIdentity(ctx, 99, enums.RoleAdmin))

	rr := httptest.NewRecorder()
	handler.Delete(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	if len(reviews.reviews) != 0 {
		t.Fatalf("expected review to be gone")
	}
	if got := courses.courses[1].RatingCount; got != 0 {
		t.Fatalf("expected rating count reset, got %d", got)
	}
}

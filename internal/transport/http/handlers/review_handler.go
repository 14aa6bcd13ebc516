package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
	reviewsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/reviews"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

type ReviewHandler struct {
	service *reviewsvc.Service
}

func NewReviewHandler(service *reviewsvc.Service) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	result, err := h.service.ListByCourse(r.Context(), courseID, queryInt(r, "limit", "20"), queryInt(r, "offset", "0"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewListResponse{
		Reviews: dto.ReviewsFromModels(result.Reviews),
		Total:   result.Total,
	})
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	courseID, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	var req dto.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	review, err := h.service.Create(r.Context(), identity, courseID, req.Rating, req.Comment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.ReviewFromModel(review))
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "reviewID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid review id")
		return
	}

	var req dto.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	review, err := h.service.Update(r.Context(), identity, id, req.Rating, req.Comment)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewFromModel(review))
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "reviewID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid review id")
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reviewsvc.ErrNotFound):
		writeNotFound(w, "review not found")
	case errors.Is(err, reviewsvc.ErrCourseNotFound):
		writeNotFound(w, "course not found")
	case errors.Is(err, reviewsvc.ErrAlreadyReviewed):
		writeConflict(w, "course already reviewed")
	case errors.Is(err, reviewsvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "rating must be between 1 and 5")
	case errors.Is(err, authz.ErrForbidden):
		writeForbidden(w, "not allowed to review this course")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
	enrollsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/enrollments"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

type EnrollmentHandler struct {
	service *enrollsvc.Service
}

func NewEnrollmentHandler(service *enrollsvc.Service) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

func (h *EnrollmentHandler) EnrollFree(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.service.EnrollFree(r.Context(), identity, courseID); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.OKResponse{OK: true})
}

func (h *EnrollmentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	views, err := h.service.ListMine(r.Context(), identity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]dto.EnrollmentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.EnrollmentFromView(v))
	}

	httperrors.Write(w, http.StatusOK, dto.EnrollmentListResponse{Enrollments: out})
}

func (h *EnrollmentHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	lessonID, ok := idParam(r, "lessonID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid lesson id")
		return
	}

	if err := h.service.CompleteLesson(r.Context(), identity, lessonID); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *EnrollmentHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, enrollsvc.ErrCourseNotFound):
		writeNotFound(w, "course not found")
	case errors.Is(err, enrollsvc.ErrLessonNotFound):
		writeNotFound(w, "lesson not found")
	case errors.Is(err, enrollsvc.ErrAlreadyEnrolled):
		writeConflict(w, "already enrolled in this course")
	case errors.Is(err, enrollsvc.ErrPaidCourse):
		writeBadRequest(w, "PAYMENT_REQUIRED", "course requires checkout")
	case errors.Is(err, authz.ErrForbidden):
		writeForbidden(w, "enrollment required")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

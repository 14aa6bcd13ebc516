package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
	lessonsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/lessons"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

// maxVideoUploadBytes caps a single lesson video at 2 GiB.
const maxVideoUploadBytes = 2 << 30

type LessonHandler struct {
	service *lessonsvc.Service
}

func NewLessonHandler(service *lessonsvc.Service) *LessonHandler {
	return &LessonHandler{service: service}
}

func (h *LessonHandler) ListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	lessons, err := h.service.ListByCourse(r.Context(), courseID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LessonListResponse{
		Lessons: dto.LessonsFromModels(lessons),
	})
}

func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req dto.LessonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	lesson, err := h.service.Create(r.Context(), identity, courseID, lessonsvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DurationSec: req.DurationSec,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.LessonFromModel(lesson))
}

func (h *LessonHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "lessonID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid lesson id")
		return
	}

	var req dto.LessonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	lesson, err := h.service.Update(r.Context(), identity, id, lessonsvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		DurationSec: req.DurationSec,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LessonFromModel(lesson))
}

func (h *LessonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "lessonID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid lesson id")
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

// UploadVideo accepts multipart/form-data with the file under "video".
func (h *LessonHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "lessonID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid lesson id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVideoUploadBytes)

	file, header, err := r.FormFile("video")
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "missing video file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := h.service.UploadVideo(r.Context(), identity, id, file, header.Size, contentType); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *LessonHandler) VideoURL(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "lessonID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid lesson id")
		return
	}

	url, err := h.service.VideoURL(r.Context(), identity, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SignedURLResponse{URL: url})
}

func (h *LessonHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lessonsvc.ErrNotFound):
		writeNotFound(w, "lesson not found")
	case errors.Is(err, lessonsvc.ErrCourseNotFound):
		writeNotFound(w, "course not found")
	case errors.Is(err, lessonsvc.ErrNoVideo):
		writeNotFound(w, "lesson has no video")
	case errors.Is(err, lessonsvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "lesson validation failed")
	case errors.Is(err, authz.ErrForbidden):
		writeForbidden(w, "not allowed to access this lesson")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

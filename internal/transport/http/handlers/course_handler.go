package handlers

import (
	"errors"
	"net/http"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/repo/postgres"
	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
	coursesvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/courses"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

// maxThumbnailUploadBytes caps a course thumbnail at 10 MiB.
const maxThumbnailUploadBytes = 10 << 20

type CourseHandler struct {
	service *coursesvc.Service
}

func NewCourseHandler(service *coursesvc.Service) *CourseHandler {
	return &CourseHandler{service: service}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := postgres.CourseFilter{
		Category: q.Get("category"),
		Level:    q.Get("level"),
		Search:   q.Get("search"),
		Limit:    queryInt(r, "limit", "20"),
		Offset:   queryInt(r, "offset", "0"),
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CourseListResponse{
		Courses: dto.CoursesFromModels(result.Courses),
		Total:   result.Total,
	})
}

func (h *CourseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	result, err := h.service.ListByInstructor(r.Context(), identity, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CourseListResponse{
		Courses: dto.CoursesFromModels(result.Courses),
		Total:   result.Total,
	})
}

// Get works with or without a signed-in identity; the optional auth
// middleware decides what ends up in the context.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	identity, _ := authsvc.IdentityFromContext(r.Context())

	course, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CourseFromModel(course))
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.CourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	course, err := h.service.Create(r.Context(), identity, coursesvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       enums.CourseLevel(req.Level),
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.CourseFromModel(course))
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	var req dto.CourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	course, err := h.service.Update(r.Context(), identity, id, coursesvc.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       enums.CourseLevel(req.Level),
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CourseFromModel(course))
}

func (h *CourseHandler) Publish(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	var req dto.PublishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.SetPublished(r.Context(), identity, id, req.Published); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

// UploadThumbnail accepts multipart/form-data with the file under
// "thumbnail".
func (h *CourseHandler) UploadThumbnail(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxThumbnailUploadBytes)

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "missing thumbnail file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := h.service.UploadThumbnail(r.Context(), identity, id, file, header.Size, contentType); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *CourseHandler) ThumbnailURL(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "courseID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid course id")
		return
	}

	identity, _ := authsvc.IdentityFromContext(r.Context())

	url, err := h.service.ThumbnailURL(r.Context(), identity, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SignedURLResponse{URL: url})
}

func (h *CourseHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coursesvc.ErrNotFound):
		writeNotFound(w, "course not found")
	case errors.Is(err, coursesvc.ErrNoThumbnail):
		writeNotFound(w, "course has no thumbnail")
	case errors.Is(err, coursesvc.ErrValidation):
		writeBadRequest(w, "INVALID_REQUEST", "course validation failed")
	case errors.Is(err, authz.ErrForbidden):
		writeForbidden(w, "not allowed to manage this course")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

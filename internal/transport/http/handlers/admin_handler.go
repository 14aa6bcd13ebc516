package handlers

import (
	"errors"
	"net/http"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	usersvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/users"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

// AdminHandler sits behind RequireRole(ADMIN); it only reads the
// identity for the self-delete check.
type AdminHandler struct {
	service *usersvc.Service
}

func NewAdminHandler(service *usersvc.Service) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), queryInt(r, "limit", "50"), queryInt(r, "offset", "0"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UserListResponse{
		Users: dto.UsersFromModels(result.Users),
		Total: result.Total,
	})
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid user id")
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UserFromModel(user))
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid user id")
		return
	}

	var req dto.ChangeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	user, err := h.service.ChangeRole(r.Context(), id, enums.Role(req.Role))
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UserFromModel(user))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	id, ok := idParam(r, "userID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid user id")
		return
	}

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AdminHandler) PlatformStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PlatformStatsResponse{UserCount: stats.UserCount})
}

func (h *AdminHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usersvc.ErrNotFound):
		writeNotFound(w, "user not found")
	case errors.Is(err, usersvc.ErrInvalidRole):
		writeBadRequest(w, "INVALID_REQUEST", "invalid role")
	case errors.Is(err, usersvc.ErrSelfDelete):
		writeForbidden(w, "admins cannot delete their own account")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

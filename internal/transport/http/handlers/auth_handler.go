package handlers

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	ratesvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/rate"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
	limiter *ratesvc.Limiter
}

func NewAuthHandler(service *authsvc.Service, limiter *ratesvc.Limiter) *AuthHandler {
	return &AuthHandler{service: service, limiter: limiter}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password, enums.Role(req.Role))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeAuthResponse(w, http.StatusCreated, res)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		allowed, retryAfter, err := h.limiter.AllowLogin(r.Context(), clientIP(r))
		if err != nil {
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
			return
		}
		if !allowed {
			httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
				Code:          "RATE_LIMITED",
				Message:       "too many login attempts",
				RetryAfterSec: retryAfter,
			})
			return
		}
	}

	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeAuthResponse(w, http.StatusOK, res)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeAuthResponse(w, http.StatusOK, res)
}

// Logout is idempotent and the payload is optional: a missing body means
// "no token to revoke" and still answers ok.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.UserID, req.OldPassword, req.NewPassword); err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.OKResponse{OK: true})
}

// Me answers from the verified token alone; no store lookup.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UserResponse{
		ID:    identity.UserID,
		Email: identity.Email,
		Role:  string(identity.Role),
	})
}

func (h *AuthHandler) writeAuthResponse(w http.ResponseWriter, status int, res authsvc.AuthResult) {
	httperrors.Write(w, status, dto.AuthResponse{
		User: dto.UserResponse{
			ID:    res.User.ID,
			Name:  res.User.Name,
			Email: res.User.Email,
			Role:  string(res.User.Role),
		},
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresInSec: maxInt64(0, int64(time.Until(res.Tokens.AccessExpiresAt).Seconds())),
	})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "INVALID_REQUEST", "request validation failed")
	case errors.Is(err, authsvc.ErrEmailTaken):
		writeConflict(w, "email is already registered")
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeUnauthorized(w, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, authsvc.ErrTokenInvalid), errors.Is(err, authsvc.ErrTokenExpired):
		// One message for every refresh failure; which check tripped is
		// not revealed.
		writeUnauthorized(w, "INVALID_REFRESH_TOKEN", "refresh token is invalid or expired")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from the forwarding
	// headers before we get here.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package handlers

import (
	"errors"
	"net/http"

	analyticssvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/analytics"
	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/authz"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

type AnalyticsHandler struct {
	service *analyticssvc.Service
}

func NewAnalyticsHandler(service *analyticssvc.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

func (h *AnalyticsHandler) InstructorStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	instructorID, ok := idParam(r, "instructorID")
	if !ok {
		writeBadRequest(w, "INVALID_REQUEST", "invalid instructor id")
		return
	}

	stats, err := h.service.InstructorStats(r.Context(), identity, instructorID)
	if err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			writeForbidden(w, "not allowed to view these stats")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, stats)
}

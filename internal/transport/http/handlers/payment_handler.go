package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/auth"
	paymentsvc "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/payments"
	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/dto"
	httperrors "github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/transport/http/errors"
)

const webhookSignatureHeader = "X-Webhook-Signature"

type PaymentHandler struct {
	service *paymentsvc.Service
}

func NewPaymentHandler(service *paymentsvc.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
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

	payment, err := h.service.Checkout(r.Context(), identity, courseID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.PaymentFromModel(payment))
}

func (h *PaymentHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	payments, err := h.service.ListMine(r.Context(), identity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PaymentListResponse{
		Payments: dto.PaymentsFromModels(payments),
	})
}

// Webhook is called by the payment provider; it authenticates with a
// shared-secret signature header, not a bearer token.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req dto.WebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	payment, err := h.service.ConfirmWebhook(r.Context(), r.Header.Get(webhookSignatureHeader), req.Reference, req.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PaymentFromModel(payment))
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paymentsvc.ErrCourseNotFound):
		writeNotFound(w, "course not found")
	case errors.Is(err, paymentsvc.ErrPaymentNotFound):
		writeNotFound(w, "payment not found")
	case errors.Is(err, paymentsvc.ErrFreeCourse):
		writeBadRequest(w, "INVALID_REQUEST", "course is free, enroll directly")
	case errors.Is(err, paymentsvc.ErrAlreadyEnrolled):
		writeConflict(w, "already enrolled in this course")
	case errors.Is(err, paymentsvc.ErrBadSignature):
		writeUnauthorized(w, "INVALID_SIGNATURE", "webhook signature mismatch")
	case errors.Is(err, paymentsvc.ErrUnknownStatus):
		writeBadRequest(w, "INVALID_REQUEST", "unknown payment status")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

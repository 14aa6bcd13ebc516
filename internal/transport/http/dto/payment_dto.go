package dto

import (
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
)

type WebhookRequest struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type PaymentResponse struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course_id"`
	AmountCents int64     `json:"amount_cents"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

func PaymentFromModel(p model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		CourseID:    p.CourseID,
		AmountCents: p.AmountCents,
		Reference:   p.Reference,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}

func PaymentsFromModels(items []model.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(items))
	for _, p := range items {
		out = append(out, PaymentFromModel(p))
	}
	return out
}

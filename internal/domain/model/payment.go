package model

import (
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
)

type Payment struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"user_id"`
	CourseID    int64               `json:"course_id"`
	AmountCents int64               `json:"amount_cents"`
	Reference   string              `json:"reference"`
	Status      enums.PaymentStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

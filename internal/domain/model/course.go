package model

import (
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/enums"
)

type Course struct {
	ID           int64             `json:"id"`
	InstructorID int64             `json:"instructor_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	Level        enums.CourseLevel `json:"level"`
	PriceCents   int64             `json:"price_cents"`
	ThumbnailKey string            `json:"-"`
	Published    bool              `json:"published"`
	RatingAvg    float64           `json:"rating_avg"`
	RatingCount  int               `json:"rating_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (c Course) Free() bool {
	return c.PriceCents == 0
}

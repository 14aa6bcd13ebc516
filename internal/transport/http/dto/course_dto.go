package dto

import (
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
)

type CourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	PriceCents  int64  `json:"price_cents"`
}

type PublishRequest struct {
	Published bool `json:"published"`
}

type CourseResponse struct {
	ID           int64     `json:"id"`
	InstructorID int64     `json:"instructor_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	PriceCents   int64     `json:"price_cents"`
	Published    bool      `json:"published"`
	RatingAvg    float64   `json:"rating_avg"`
	RatingCount  int       `json:"rating_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CourseListResponse struct {
	Courses []CourseResponse `json:"courses"`
	Total   int              `json:"total"`
}

func CourseFromModel(c model.Course) CourseResponse {
	return CourseResponse{
		ID:           c.ID,
		InstructorID: c.InstructorID,
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		Level:        string(c.Level),
		PriceCents:   c.PriceCents,
		Published:    c.Published,
		RatingAvg:    c.RatingAvg,
		RatingCount:  c.RatingCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func CoursesFromModels(items []model.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(items))
	for _, c := range items {
		out = append(out, CourseFromModel(c))
	}
	return out
}

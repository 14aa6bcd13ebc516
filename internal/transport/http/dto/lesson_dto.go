package dto

import (
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/domain/model"
)

type LessonRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DurationSec int    `json:"duration_sec"`
}

type LessonResponse struct {
	ID          int64     `json:"id"`
	CourseID    int64     `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	DurationSec int       `json:"duration_sec"`
	HasVideo    bool      `json:"has_video"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LessonListResponse struct {
	Lessons []LessonResponse `json:"lessons"`
}

// SignedURLResponse carries a short-lived presigned object URL.
type SignedURLResponse struct {
	URL string `json:"url"`
}

func LessonFromModel(l model.Lesson) LessonResponse {
	return LessonResponse{
		ID:          l.ID,
		CourseID:    l.CourseID,
		Title:       l.Title,
		Description: l.Description,
		Position:    l.Position,
		DurationSec: l.DurationSec,
		HasVideo:    l.VideoKey != "",
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func LessonsFromModels(items []model.Lesson) []LessonResponse {
	out := make([]LessonResponse, 0, len(items))
	for _, l := range items {
		out = append(out, LessonFromModel(l))
	}
	return out
}

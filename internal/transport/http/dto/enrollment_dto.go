package dto

import (
	"time"

	"github.com/Aayushman117/knowledgenest-kiroVision-IDE/internal/services/enrollments"
)

type EnrollmentResponse struct {
	ID               int64          `json:"id"`
	Course           CourseResponse `json:"course"`
	EnrolledAt       time.Time      `json:"enrolled_at"`
	LessonsTotal     int            `json:"lessons_total"`
	LessonsCompleted int            `json:"lessons_completed"`
	ProgressPercent  int            `json:"progress_percent"`
}

type EnrollmentListResponse struct {
	Enrollments []EnrollmentResponse `json:"enrollments"`
}

func EnrollmentFromView(v enrollments.EnrollmentView) EnrollmentResponse {
	return EnrollmentResponse{
		ID:               v.Enrollment.ID,
		Course:           CourseFromModel(v.Course),
		EnrolledAt:       v.Enrollment.EnrolledAt,
		LessonsTotal:     v.LessonsTotal,
		LessonsCompleted: v.LessonsCompleted,
		ProgressPercent:  v.ProgressPercent,
	}
}

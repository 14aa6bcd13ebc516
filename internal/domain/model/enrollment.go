package model

import "time"

type Enrollment struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CourseID   int64     `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

type LessonProgress struct {
	EnrollmentID int64     `json:"enrollment_id"`
	LessonID     int64     `json:"lesson_id"`
	CompletedAt  time.Time `json:"completed_at"`
}

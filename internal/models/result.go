package models

import "time"

// Result is one student's exam outcome. StudentID doubles as the record key.
type Result struct {
	StudentID  int64     `json:"student_id"`
	Name       string    `json:"name"`
	ExamType   string    `json:"exam_type"`
	TotalMarks int       `json:"total_marks"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

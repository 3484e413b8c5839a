package dto

import (
	"encoding/json"
	"strings"

	"github.com/hongminglow/exam-results/internal/models"
)

// CreateResultRequest is the body of POST /user/addresult.
type CreateResultRequest struct {
	StudentID  int64  `json:"student_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required"`
	ExamType   string `json:"exam_type" validate:"required"`
	TotalMarks *int   `json:"total_marks" validate:"required,min=0,max=100"`
}

// UnmarshalJSON also accepts "subject" and "marks" for exam_type and total_marks.
func (r *CreateResultRequest) UnmarshalJSON(data []byte) error {
	type plain CreateResultRequest
	var aux struct {
		plain
		resultAliases
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = CreateResultRequest(aux.plain)
	r.ExamType, r.TotalMarks = aux.apply(r.ExamType, r.TotalMarks)
	r.Name = strings.TrimSpace(r.Name)
	r.ExamType = strings.TrimSpace(r.ExamType)
	return nil
}

// Result converts the validated request into a storable record.
func (r CreateResultRequest) Result() models.Result {
	return models.Result{
		StudentID:  r.StudentID,
		Name:       r.Name,
		ExamType:   r.ExamType,
		TotalMarks: *r.TotalMarks,
	}
}

// UpdateResultRequest is the body of PUT /results/{student_id}; the id comes from the path.
type UpdateResultRequest struct {
	Name       string `json:"name" validate:"required"`
	ExamType   string `json:"exam_type" validate:"required"`
	TotalMarks *int   `json:"total_marks" validate:"required,min=0,max=100"`
}

func (r *UpdateResultRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateResultRequest
	var aux struct {
		plain
		resultAliases
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = UpdateResultRequest(aux.plain)
	r.ExamType, r.TotalMarks = aux.apply(r.ExamType, r.TotalMarks)
	r.Name = strings.TrimSpace(r.Name)
	r.ExamType = strings.TrimSpace(r.ExamType)
	return nil
}

// Result converts the validated request into a record for studentID.
func (r UpdateResultRequest) Result(studentID int64) models.Result {
	return models.Result{
		StudentID:  studentID,
		Name:       r.Name,
		ExamType:   r.ExamType,
		TotalMarks: *r.TotalMarks,
	}
}

type resultAliases struct {
	Subject *string `json:"subject"`
	Marks   *int    `json:"marks"`
}

func (a resultAliases) apply(examType string, marks *int) (string, *int) {
	if examType == "" && a.Subject != nil {
		examType = *a.Subject
	}
	if marks == nil && a.Marks != nil {
		marks = a.Marks
	}
	return examType, marks
}

// ResultPage is the list response shape of GET /results.
type ResultPage struct {
	Students    []models.Result `json:"students"`
	TotalCount  int64           `json:"totalCount"`
	CurrentPage int             `json:"currentPage"`
}

package dto

import (
	"time"

	"github.com/classwork-labs/classwork-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for submission upload.
type SubmissionCreateRequest struct {
	AssignmentID uint   `form:"assignment_id" validate:"required,gt=0"`
	Comment      string `form:"comment" validate:"omitempty,max=2000"`
}

// SubmissionUpdateRequest carries the optional content changes of an update.
// New files travel alongside in the multipart body.
type SubmissionUpdateRequest struct {
	Comment *string `form:"comment" validate:"omitempty,max=2000"`
}

// GradeRequest is the lecturer payload for grading a submission.
type GradeRequest struct {
	Grade    int    `json:"grade" validate:"gte=0,lte=100"`
	Feedback string `json:"feedback" validate:"omitempty,max=4000"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint
	Graded       *bool
}

// AttachmentResponse describes one file bound to a submission.
type AttachmentResponse struct {
	Index    int    `json:"index"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint                 `json:"id"`
	AssignmentID uint                 `json:"assignment_id"`
	StudentID    uint                 `json:"student_id"`
	Attachments  []AttachmentResponse `json:"attachments"`
	Comment      string               `json:"comment"`
	SubmittedAt  time.Time            `json:"submitted_at"`
	IsLate       bool                 `json:"is_late"`
	Grade        *int                 `json:"grade"`
	Feedback     string               `json:"feedback"`
	GradedBy     *uint                `json:"graded_by"`
	GradedAt     *time.Time           `json:"graded_at"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Assignment   AssignmentLite       `json:"assignment"`
	Student      UserLite             `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Deadline    time.Time `json:"deadline"`
	ClassroomID string    `json:"classroom_id"`
}

// UserLite summarizes an account without exposing full profile data.
type UserLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Comment:      model.Comment,
		SubmittedAt:  model.SubmittedAt,
		IsLate:       model.IsLate,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	attachments := model.AttachmentList()
	response.Attachments = make([]AttachmentResponse, 0, len(attachments))
	for i, attachment := range attachments {
		response.Attachments = append(response.Attachments, AttachmentResponse{
			Index:    i,
			FileName: attachment.FileName,
			MimeType: attachment.MimeType,
			Size:     attachment.Size,
		})
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:          model.Assignment.ID,
			Title:       model.Assignment.Title,
			Deadline:    model.Assignment.Deadline,
			ClassroomID: model.Assignment.ClassroomID,
		}
	}

	if model.Student.ID != 0 {
		response.Student = UserLite{
			ID:    model.Student.ID,
			Name:  model.Student.Name,
			Email: model.Student.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

package dto

import (
	"time"

	"github.com/classwork-labs/classwork-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	Title          string `form:"title" json:"title" validate:"required,min=3"`
	Description    string `form:"description" json:"description" validate:"omitempty,max=8000"`
	Deadline       string `form:"deadline" json:"deadline" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ClassroomID    string `form:"classroom_id" json:"classroom_id" validate:"omitempty,max=64"`
	AllowedFormats string `form:"allowed_formats" json:"allowed_formats" validate:"omitempty,max=255"`
	MaxFileSizeMB  int    `form:"max_file_size_mb" json:"max_file_size_mb" validate:"omitempty,gte=0,lte=1024"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title          *string `form:"title" json:"title" validate:"omitempty,min=3"`
	Description    *string `form:"description" json:"description" validate:"omitempty,max=8000"`
	Deadline       *string `form:"deadline" json:"deadline" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	ClassroomID    *string `form:"classroom_id" json:"classroom_id" validate:"omitempty,max=64"`
	AllowedFormats *string `form:"allowed_formats" json:"allowed_formats" validate:"omitempty,max=255"`
	MaxFileSizeMB  *int    `form:"max_file_size_mb" json:"max_file_size_mb" validate:"omitempty,gte=0,lte=1024"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Deadline       time.Time `json:"deadline"`
	ClassroomID    string    `json:"classroom_id"`
	CreatedBy      uint      `json:"created_by"`
	PromptURL      string    `json:"prompt_url"`
	AllowedFormats []string  `json:"allowed_formats"`
	MaxFileSizeMB  int       `json:"max_file_size_mb"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		Deadline:       model.Deadline,
		ClassroomID:    model.ClassroomID,
		CreatedBy:      model.CreatedBy,
		PromptURL:      model.PromptURL,
		AllowedFormats: model.AllowedFormatList(),
		MaxFileSizeMB:  model.MaxFileSizeMB,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

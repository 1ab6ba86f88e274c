package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/classwork-labs/classwork-api/internal/dto"
	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/repository"
)

var (
	// ErrInvalidDeadline indicates the deadline is not a valid RFC 3339 timestamp.
	ErrInvalidDeadline = errors.New("deadline must be a valid RFC 3339 timestamp")
	// ErrDeadlineInPast indicates a new assignment's deadline has already passed.
	ErrDeadlineInPast = errors.New("deadline must be in the future")
)

// FileUploader abstracts uploading binary data and returning a URL. Prompt
// files attached to assignments go through it; submission attachments use the
// blob store instead so they can be streamed back.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService exposes assignment domain use cases. Submissions treat
// assignments as read-only reference data; only lecturers reach the mutating
// operations.
type AssignmentService interface {
	List(ctx context.Context) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest, prompt *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, prompt *multipart.FileHeader) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	validator *validator.Validate
	uploader  FileUploader
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, uploader FileUploader, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		validator: validate,
		uploader:  uploader,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, payload dto.AssignmentCreateRequest, prompt *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	deadline, err := time.Parse(time.RFC3339, payload.Deadline)
	if err != nil {
		return dto.AssignmentResponse{}, ErrInvalidDeadline
	}

	if !deadline.After(s.now()) {
		return dto.AssignmentResponse{}, ErrDeadlineInPast
	}

	assignment := models.Assignment{
		Title:         payload.Title,
		Description:   payload.Description,
		Deadline:      deadline,
		ClassroomID:   payload.ClassroomID,
		CreatedBy:     actor.ID,
		MaxFileSizeMB: payload.MaxFileSizeMB,
	}

	if payload.AllowedFormats != "" {
		assignment.SetAllowedFormats(strings.Split(payload.AllowedFormats, ","))
	}

	if prompt != nil {
		url, err := s.uploadPrompt(ctx, prompt)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.PromptURL = url
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, prompt *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}

	if payload.Description != nil {
		assignment.Description = *payload.Description
	}

	if payload.Deadline != nil {
		deadline, err := time.Parse(time.RFC3339, *payload.Deadline)
		if err != nil {
			return dto.AssignmentResponse{}, ErrInvalidDeadline
		}

		// Lateness of existing submissions is frozen at write time; moving
		// the deadline only affects submissions created or replaced later.
		assignment.Deadline = deadline
	}

	if payload.ClassroomID != nil {
		assignment.ClassroomID = *payload.ClassroomID
	}

	if payload.AllowedFormats != nil {
		assignment.SetAllowedFormats(strings.Split(*payload.AllowedFormats, ","))
	}

	if payload.MaxFileSizeMB != nil {
		assignment.MaxFileSizeMB = *payload.MaxFileSizeMB
	}

	if prompt != nil {
		url, err := s.uploadPrompt(ctx, prompt)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.PromptURL = url
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) uploadPrompt(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}

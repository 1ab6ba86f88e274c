package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/classwork-labs/classwork-api/internal/dto"
	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/observability"
	"github.com/classwork-labs/classwork-api/internal/repository"
	"github.com/classwork-labs/classwork-api/internal/storage"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrAssignmentNotFound indicates the referenced assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrDuplicateSubmission indicates the student already submitted for the assignment.
	ErrDuplicateSubmission = errors.New("a submission for this assignment already exists; update the existing one instead")
	// ErrAttachmentNotFound indicates the requested attachment is absent.
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// AttachmentDownload carries a streamed attachment together with the metadata
// the transport layer needs to serve it.
type AttachmentDownload struct {
	Reader   io.ReadCloser
	FileName string
	MimeType string
	Size     int64
}

// SubmissionService orchestrates the submission lifecycle: create, revise,
// grade, delete and attachment download, with authorization evaluated before
// every state change.
type SubmissionService interface {
	List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.SubmissionUpdateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Grade(ctx context.Context, actor Actor, id uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
	OpenAttachment(ctx context.Context, actor Actor, id uint, index int) (AttachmentDownload, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	attachments *AttachmentManager
	guard       AccessGuard
	engine      GradingEngine
	notifier    GradedNotifier
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	defaults    models.UploadPolicy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	attachments *AttachmentManager,
	notifier GradedNotifier,
	validate *validator.Validate,
	defaults models.UploadPolicy,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		attachments: attachments,
		notifier:    notifier,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		defaults:    defaults,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/classwork-labs/classwork-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, actor Actor, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	repoFilter := s.guard.ScopeList(actor, repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		Graded:       filter.Graded,
	})

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if err := s.guard.CanRead(actor, submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create", trace.WithAttributes(
		attribute.Int64("submission.assignment_id", int64(payload.AssignmentID)),
		attribute.Int64("submission.student_id", int64(actor.ID)),
	))
	defer span.End()
	defer s.observe("create")()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "create", err, "validation failed")
	}

	if err := s.guard.CanCreate(actor); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "create", err, "role denied")
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, s.fail(span, "create", ErrAssignmentNotFound, "assignment missing")
		}
		return dto.SubmissionResponse{}, s.fail(span, "create", err, "assignment lookup failed")
	}

	policy := assignment.ResolveUploadPolicy(s.defaults)
	if err := s.attachments.Validate(files, policy); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "create", err, "file validation failed")
	}

	now := s.now()
	stored, err := s.attachments.Store(ctx, files)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "create", err, "file storage failed")
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    actor.ID,
		Comment:      s.sanitize(payload.Comment),
		SubmittedAt:  now,
		IsLate:       assignment.IsLateAt(now),
	}
	submission.SetAttachments(stored)

	if err := s.submissions.Create(ctx, &submission); err != nil {
		// The record never existed, so the freshly stored blobs must go too.
		s.attachments.Remove(ctx, stored)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, s.fail(span, "create", ErrDuplicateSubmission, "duplicate submission")
		}
		return dto.SubmissionResponse{}, s.fail(span, "create", err, "persistence failed")
	}

	created, err := s.getSubmission(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "create", err, "reload failed")
	}

	span.SetAttributes(attribute.Bool("submission.is_late", created.IsLate))
	span.SetStatus(codes.Ok, "created")
	observability.SubmissionOps().WithLabelValues("create", "success").Inc()
	s.logger.Info().Uint("submission_id", created.ID).Bool("is_late", created.IsLate).Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) Update(ctx context.Context, actor Actor, id uint, payload dto.SubmissionUpdateRequest, files []*multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.update", trace.WithAttributes(
		attribute.Int64("submission.id", int64(id)),
	))
	defer span.End()
	defer s.observe("update")()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "update", err, "validation failed")
	}

	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "update", err, "lookup failed")
	}

	if err := s.guard.CanMutate(actor, submission); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "update", err, "mutation denied")
	}

	patch := repository.SubmissionContentPatch{}
	if payload.Comment != nil {
		comment := s.sanitize(*payload.Comment)
		patch.Comment = &comment
	}

	var newAttachments []models.Attachment
	oldAttachments := submission.AttachmentList()

	if len(files) > 0 {
		policy := submission.Assignment.ResolveUploadPolicy(s.defaults)
		if err := s.attachments.Validate(files, policy); err != nil {
			return dto.SubmissionResponse{}, s.fail(span, "update", err, "file validation failed")
		}

		newAttachments, err = s.attachments.Store(ctx, files)
		if err != nil {
			return dto.SubmissionResponse{}, s.fail(span, "update", err, "file storage failed")
		}

		now := s.now()
		isLate := submission.Assignment.IsLateAt(now)
		patch.Attachments = &newAttachments
		patch.SubmittedAt = &now
		patch.IsLate = &isLate
	}

	changed, err := s.submissions.UpdateContentIfUngraded(ctx, id, patch)
	if err != nil {
		s.attachments.Remove(ctx, newAttachments)
		return dto.SubmissionResponse{}, s.fail(span, "update", err, "persistence failed")
	}
	if !changed {
		// Lost a race: either a grade committed after our guard check, or the
		// record was deleted. The new blobs are unreferenced either way.
		s.attachments.Remove(ctx, newAttachments)
		if _, err := s.getSubmission(ctx, id); err != nil {
			return dto.SubmissionResponse{}, s.fail(span, "update", err, "record gone")
		}
		return dto.SubmissionResponse{}, s.fail(span, "update", ErrSubmissionGraded, "graded concurrently")
	}

	// The record now references the new blobs; the old ones are unreachable.
	if len(newAttachments) > 0 {
		s.attachments.Remove(ctx, oldAttachments)
	}

	updated, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "update", err, "reload failed")
	}

	span.SetStatus(codes.Ok, "updated")
	observability.SubmissionOps().WithLabelValues("update", "success").Inc()
	s.logger.Info().Uint("submission_id", id).Int("files_replaced", len(newAttachments)).Msg("submission updated")

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) Delete(ctx context.Context, actor Actor, id uint) error {
	ctx, span := s.tracer.Start(ctx, "submission.delete", trace.WithAttributes(
		attribute.Int64("submission.id", int64(id)),
	))
	defer span.End()
	defer s.observe("delete")()

	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return s.fail(span, "delete", err, "lookup failed")
	}

	if err := s.guard.CanMutate(actor, submission); err != nil {
		return s.fail(span, "delete", err, "mutation denied")
	}

	deleted, err := s.submissions.DeleteIfUngraded(ctx, id)
	if err != nil {
		return s.fail(span, "delete", err, "persistence failed")
	}
	if !deleted {
		if _, err := s.getSubmission(ctx, id); err != nil {
			return s.fail(span, "delete", err, "record gone")
		}
		return s.fail(span, "delete", ErrSubmissionGraded, "graded concurrently")
	}

	// The record is the source of truth; blob cleanup failures are logged
	// anomalies, never a reason to resurrect the record.
	s.attachments.Remove(ctx, submission.AttachmentList())

	span.SetStatus(codes.Ok, "deleted")
	observability.SubmissionOps().WithLabelValues("delete", "success").Inc()
	s.logger.Info().Uint("submission_id", id).Msg("submission deleted")

	return nil
}

func (s *submissionService) Grade(ctx context.Context, actor Actor, id uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.grade", trace.WithAttributes(
		attribute.Int64("submission.id", int64(id)),
		attribute.Int64("grading.grader_id", int64(actor.ID)),
	))
	defer span.End()
	defer s.observe("grade")()

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "grade", err, "validation failed")
	}

	if err := s.guard.CanGrade(actor); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "grade", err, "role denied")
	}

	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "grade", err, "lookup failed")
	}

	now := s.now()
	feedback := s.sanitize(payload.Feedback)
	if err := s.engine.Apply(&submission, payload.Grade, feedback, actor.ID, now); err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "grade", err, "grade rejected")
	}

	if err := s.submissions.SetGrade(ctx, id, payload.Grade, feedback, actor.ID, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, s.fail(span, "grade", ErrSubmissionNotFound, "record gone")
		}
		return dto.SubmissionResponse{}, s.fail(span, "grade", err, "persistence failed")
	}

	if s.notifier != nil {
		s.notifier.SubmissionGraded(ctx, GradedEvent{
			SubmissionID: submission.ID,
			AssignmentID: submission.AssignmentID,
			StudentID:    submission.StudentID,
			Grade:        payload.Grade,
			GradedBy:     actor.ID,
			GradedAt:     now,
		})
	}

	graded, err := s.getSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, s.fail(span, "grade", err, "reload failed")
	}

	span.SetAttributes(attribute.Int("grading.grade", payload.Grade))
	span.SetStatus(codes.Ok, "graded")
	observability.SubmissionOps().WithLabelValues("grade", "success").Inc()
	s.logger.Info().Uint("submission_id", id).Int("grade", payload.Grade).Uint("graded_by", actor.ID).Msg("submission graded")

	return dto.NewSubmissionResponse(graded), nil
}

func (s *submissionService) OpenAttachment(ctx context.Context, actor Actor, id uint, index int) (AttachmentDownload, error) {
	submission, err := s.getSubmission(ctx, id)
	if err != nil {
		return AttachmentDownload{}, err
	}

	if err := s.guard.CanRead(actor, submission); err != nil {
		return AttachmentDownload{}, err
	}

	attachments := submission.AttachmentList()
	if index < 0 || index >= len(attachments) {
		return AttachmentDownload{}, ErrAttachmentNotFound
	}

	attachment := attachments[index]
	reader, err := s.attachments.Open(ctx, attachment)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			s.logger.Error().Uint("submission_id", id).Str("stored_name", attachment.StoredName).Msg("attachment blob missing for live record")
			return AttachmentDownload{}, ErrAttachmentNotFound
		}
		return AttachmentDownload{}, err
	}

	return AttachmentDownload{
		Reader:   reader,
		FileName: attachment.FileName,
		MimeType: attachment.MimeType,
		Size:     attachment.Size,
	}, nil
}

func (s *submissionService) getSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *submissionService) sanitize(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}

func (s *submissionService) observe(operation string) func() {
	start := time.Now()
	return func() {
		observability.SubmissionLatency().WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func (s *submissionService) fail(span trace.Span, operation string, err error, status string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	observability.SubmissionOps().WithLabelValues(operation, "error").Inc()
	return err
}

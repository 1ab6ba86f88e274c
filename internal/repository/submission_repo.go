package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/classwork-labs/classwork-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	AssignmentID *uint
	StudentID    *uint
	Graded       *bool
}

// SubmissionContentPatch carries the mutable (pre-grading) fields of a submission.
type SubmissionContentPatch struct {
	Attachments *[]models.Attachment
	Comment     *string
	SubmittedAt *time.Time
	IsLate      *bool
}

// SubmissionRepository defines data operations for submissions. The composite
// unique index on (assignment_id, student_id) is the authoritative guard
// against duplicate submissions; Create surfaces violations as
// gorm.ErrDuplicatedKey.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	// UpdateContentIfUngraded applies the patch only while the submission is
	// ungraded, re-checking that state inside the UPDATE itself so a grade
	// landing concurrently cannot be overwritten. It reports whether a row
	// was changed.
	UpdateContentIfUngraded(ctx context.Context, id uint, patch SubmissionContentPatch) (bool, error)
	// DeleteIfUngraded removes the record only while ungraded, with the same
	// commit-time guard. It reports whether a row was deleted.
	DeleteIfUngraded(ctx context.Context, id uint) (bool, error)
	// SetGrade writes grade, feedback, grader and grading time in a single
	// statement so the four fields can never be observed partially set.
	SetGrade(ctx context.Context, id uint, grade int, feedback string, gradedBy uint, gradedAt time.Time) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.AssignmentID != nil {
		query = query.Where("assignment_id = ?", *filter.AssignmentID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Graded != nil {
		if *filter.Graded {
			query = query.Where("graded_at IS NOT NULL")
		} else {
			query = query.Where("graded_at IS NULL")
		}
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC, id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) UpdateContentIfUngraded(ctx context.Context, id uint, patch SubmissionContentPatch) (bool, error) {
	updates := map[string]interface{}{}

	if patch.Attachments != nil {
		holder := models.Submission{}
		holder.SetAttachments(*patch.Attachments)
		updates["attachments"] = datatypes.JSON(holder.Attachments)
	}
	if patch.Comment != nil {
		updates["comment"] = *patch.Comment
	}
	if patch.SubmittedAt != nil {
		updates["submitted_at"] = *patch.SubmittedAt
	}
	if patch.IsLate != nil {
		updates["is_late"] = *patch.IsLate
	}

	if len(updates) == 0 {
		return true, nil
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND graded_at IS NULL", id).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) DeleteIfUngraded(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND graded_at IS NULL", id).
		Delete(&models.Submission{})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *submissionRepository) SetGrade(ctx context.Context, id uint, grade int, feedback string, gradedBy uint, gradedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grade":     grade,
			"feedback":  feedback,
			"graded_by": gradedBy,
			"graded_at": gradedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

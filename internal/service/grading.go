package service

import (
	"errors"
	"time"

	"github.com/classwork-labs/classwork-api/internal/models"
)

// ErrGradeOutOfRange indicates a grade outside the accepted 0-100 range.
var ErrGradeOutOfRange = errors.New("grade must be between 0 and 100")

// GradingEngine validates and applies grades. Grade, feedback, grader and
// grading time always change together; re-grading overwrites all four.
type GradingEngine struct{}

// Apply stamps the grade onto the submission in memory. The caller persists
// the four fields in a single statement to keep the write atomic.
func (GradingEngine) Apply(submission *models.Submission, grade int, feedback string, graderID uint, now time.Time) error {
	if grade < 0 || grade > 100 {
		return ErrGradeOutOfRange
	}

	submission.Grade = &grade
	submission.Feedback = feedback
	submission.GradedBy = &graderID
	submission.GradedAt = &now

	return nil
}

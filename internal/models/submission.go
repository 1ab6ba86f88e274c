package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Attachment describes one stored file bound to a submission.
type Attachment struct {
	FileName   string `json:"file_name"`
	StoredName string `json:"stored_name"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
}

// Submission represents a student's attempt at an assignment. A student holds
// at most one submission per assignment, enforced by the composite unique
// index so concurrent creates cannot both succeed.
type Submission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AssignmentID uint           `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"assignment_id"`
	StudentID    uint           `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"student_id"`
	Attachments  datatypes.JSON `gorm:"type:json" json:"-"`
	Comment      string         `gorm:"type:text" json:"comment"`
	SubmittedAt  time.Time      `gorm:"not null" json:"submitted_at"`
	IsLate       bool           `gorm:"not null" json:"is_late"`
	Grade        *int           `json:"grade"`
	Feedback     string         `gorm:"type:text" json:"feedback"`
	GradedBy     *uint          `json:"graded_by"`
	GradedAt     *time.Time     `json:"graded_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Assignment   Assignment     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      User           `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsGraded reports whether the submission carries a final grade. Grade,
// feedback, grader and grading time are always written together, so the
// grading timestamp is the authoritative marker.
func (s Submission) IsGraded() bool {
	return s.GradedAt != nil
}

// SetAttachments serializes the attachment list into the JSON storage column.
func (s *Submission) SetAttachments(attachments []Attachment) {
	if len(attachments) == 0 {
		s.Attachments = datatypes.JSON([]byte("[]"))
		return
	}

	data, err := json.Marshal(attachments)
	if err != nil {
		s.Attachments = datatypes.JSON([]byte("[]"))
		return
	}
	s.Attachments = datatypes.JSON(data)
}

// AttachmentList deserializes the stored attachments in submission order.
func (s Submission) AttachmentList() []Attachment {
	if len(s.Attachments) == 0 {
		return nil
	}

	var attachments []Attachment
	if err := json.Unmarshal(s.Attachments, &attachments); err != nil {
		return nil
	}

	return attachments
}

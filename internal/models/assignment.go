package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Assignment represents an instructor-defined unit of work with a deadline
// and optional per-assignment upload constraints.
type Assignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Deadline       time.Time      `gorm:"not null" json:"deadline"`
	ClassroomID    string         `gorm:"size:64;index" json:"classroom_id"`
	CreatedBy      uint           `gorm:"not null;index" json:"created_by"`
	PromptURL      string         `gorm:"size:512" json:"prompt_url"`
	AllowedFormats datatypes.JSON `gorm:"type:json" json:"-"`
	MaxFileSizeMB  int            `json:"max_file_size_mb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Submissions    []Submission   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// IsLateAt reports whether work handed in at the given instant misses the
// deadline. Handing in exactly at the deadline is on time.
func (a Assignment) IsLateAt(submittedAt time.Time) bool {
	return submittedAt.After(a.Deadline)
}

// SetAllowedFormats serializes the extension allow-list into the JSON column.
func (a *Assignment) SetAllowedFormats(formats []string) {
	cleaned := make([]string, 0, len(formats))
	for _, format := range formats {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(format, ".")))
		if normalized != "" {
			cleaned = append(cleaned, normalized)
		}
	}

	if len(cleaned) == 0 {
		a.AllowedFormats = nil
		return
	}

	data, err := json.Marshal(cleaned)
	if err != nil {
		a.AllowedFormats = datatypes.JSON([]byte("[]"))
		return
	}
	a.AllowedFormats = datatypes.JSON(data)
}

// AllowedFormatList deserializes the stored allow-list. An empty result means
// the assignment defers to the global default.
func (a Assignment) AllowedFormatList() []string {
	if len(a.AllowedFormats) == 0 {
		return nil
	}

	var formats []string
	if err := json.Unmarshal(a.AllowedFormats, &formats); err != nil {
		return nil
	}

	return formats
}

// UploadPolicy captures the upload constraints resolved for a single call.
type UploadPolicy struct {
	AllowedFormats []string
	MaxSizeBytes   int64
}

// ResolveUploadPolicy merges the assignment's overrides with global defaults.
func (a Assignment) ResolveUploadPolicy(defaults UploadPolicy) UploadPolicy {
	policy := defaults
	if formats := a.AllowedFormatList(); len(formats) > 0 {
		policy.AllowedFormats = formats
	}
	if a.MaxFileSizeMB > 0 {
		policy.MaxSizeBytes = int64(a.MaxFileSizeMB) * 1024 * 1024
	}
	return policy
}

package models

import "time"

// Role values recognised across the API.
const (
	// RoleStudent identifies a learner who submits work.
	RoleStudent = "student"
	// RoleLecturer identifies an instructor who creates assignments and grades.
	RoleLecturer = "lecturer"
)

// User represents an account that can author assignments or submissions.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Role         string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsLecturer reports whether the user holds the grading role.
func (u User) IsLecturer() bool {
	return u.Role == RoleLecturer
}

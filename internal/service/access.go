package service

import (
	"errors"

	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/repository"
)

var (
	// ErrNotSubmissionOwner indicates the caller does not own the submission.
	ErrNotSubmissionOwner = errors.New("not authorized to access this submission")
	// ErrGraderRoleRequired indicates the operation is reserved for lecturers.
	ErrGraderRoleRequired = errors.New("grading requires the lecturer role")
	// ErrStudentRoleRequired indicates only students may submit work.
	ErrStudentRoleRequired = errors.New("submitting requires the student role")
	// ErrSubmissionGraded indicates a mutation was attempted on a graded submission.
	ErrSubmissionGraded = errors.New("submission has already been graded")
)

// Actor identifies the authenticated caller of a use case. Identity is
// verified upstream; the guard only decides what the caller may do.
type Actor struct {
	ID   uint
	Role string
}

// IsLecturer reports whether the actor holds the grading role.
func (a Actor) IsLecturer() bool {
	return a.Role == models.RoleLecturer
}

// AccessGuard evaluates the authorization matrix for submission operations.
// Existence is always established before these checks run, so a denial never
// doubles as an existence probe.
type AccessGuard struct{}

// CanRead allows the owning student and any lecturer.
func (AccessGuard) CanRead(actor Actor, submission models.Submission) error {
	if actor.IsLecturer() || submission.StudentID == actor.ID {
		return nil
	}
	return ErrNotSubmissionOwner
}

// CanCreate allows students only; lecturers do not submit work.
func (AccessGuard) CanCreate(actor Actor) error {
	if actor.IsLecturer() {
		return ErrStudentRoleRequired
	}
	return nil
}

// CanMutate allows the owning student while the submission is ungraded.
// Lecturers mutate through grading, never through content updates.
func (AccessGuard) CanMutate(actor Actor, submission models.Submission) error {
	if submission.StudentID != actor.ID || actor.IsLecturer() {
		return ErrNotSubmissionOwner
	}
	if submission.IsGraded() {
		return ErrSubmissionGraded
	}
	return nil
}

// CanGrade allows lecturers only.
func (AccessGuard) CanGrade(actor Actor) error {
	if !actor.IsLecturer() {
		return ErrGraderRoleRequired
	}
	return nil
}

// ScopeList narrows a list filter to what the actor may see: students are
// pinned to their own submissions, lecturers see everything.
func (AccessGuard) ScopeList(actor Actor, filter repository.SubmissionFilter) repository.SubmissionFilter {
	if !actor.IsLecturer() {
		studentID := actor.ID
		filter.StudentID = &studentID
	}
	return filter
}

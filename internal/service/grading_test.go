package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/classwork-labs/classwork-api/internal/models"
)

func TestGradingEngineApplySetsAllFields(t *testing.T) {
	engine := GradingEngine{}
	submission := models.Submission{}
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, engine.Apply(&submission, 85, "solid work", 7, now))
	require.Equal(t, 85, *submission.Grade)
	require.Equal(t, "solid work", submission.Feedback)
	require.Equal(t, uint(7), *submission.GradedBy)
	require.Equal(t, now, *submission.GradedAt)
	require.True(t, submission.IsGraded())
}

func TestGradingEngineApplyAcceptsBoundaryGrades(t *testing.T) {
	engine := GradingEngine{}
	now := time.Now()

	for _, grade := range []int{0, 100} {
		submission := models.Submission{}
		require.NoError(t, engine.Apply(&submission, grade, "", 7, now))
		require.Equal(t, grade, *submission.Grade)
	}
}

func TestGradingEngineApplyRejectsOutOfRangeWithoutMutating(t *testing.T) {
	engine := GradingEngine{}
	now := time.Now()

	for _, grade := range []int{-1, 101} {
		submission := models.Submission{}
		require.ErrorIs(t, engine.Apply(&submission, grade, "x", 7, now), ErrGradeOutOfRange)
		require.Nil(t, submission.Grade)
		require.Empty(t, submission.Feedback)
		require.Nil(t, submission.GradedBy)
		require.Nil(t, submission.GradedAt)
	}
}

func TestGradingEngineApplyOverwritesPreviousGrade(t *testing.T) {
	engine := GradingEngine{}
	now := time.Now()

	submission := models.Submission{}
	require.NoError(t, engine.Apply(&submission, 85, "first pass", 7, now))
	require.NoError(t, engine.Apply(&submission, 90, "after appeal", 8, now.Add(time.Hour)))

	require.Equal(t, 90, *submission.Grade)
	require.Equal(t, "after appeal", submission.Feedback)
	require.Equal(t, uint(8), *submission.GradedBy)
	require.Equal(t, now.Add(time.Hour), *submission.GradedAt)
}

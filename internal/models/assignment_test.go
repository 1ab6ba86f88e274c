package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsLateAtTreatsDeadlineInstantAsOnTime(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	assignment := Assignment{Deadline: deadline}

	require.False(t, assignment.IsLateAt(deadline.Add(-time.Second)))
	require.False(t, assignment.IsLateAt(deadline))
	require.True(t, assignment.IsLateAt(deadline.Add(time.Nanosecond)))
}

func TestResolveUploadPolicyPrefersAssignmentOverrides(t *testing.T) {
	defaults := UploadPolicy{AllowedFormats: []string{"pdf", "doc"}, MaxSizeBytes: 10 << 20}

	assignment := Assignment{MaxFileSizeMB: 2}
	assignment.SetAllowedFormats([]string{".ZIP", " png "})

	policy := assignment.ResolveUploadPolicy(defaults)
	require.Equal(t, []string{"zip", "png"}, policy.AllowedFormats)
	require.Equal(t, int64(2<<20), policy.MaxSizeBytes)
}

func TestResolveUploadPolicyFallsBackToDefaults(t *testing.T) {
	defaults := UploadPolicy{AllowedFormats: []string{"pdf"}, MaxSizeBytes: 10 << 20}

	policy := Assignment{}.ResolveUploadPolicy(defaults)
	require.Equal(t, defaults, policy)
}

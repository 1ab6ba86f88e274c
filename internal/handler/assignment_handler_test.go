package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/classwork-labs/classwork-api/internal/dto"
	"github.com/classwork-labs/classwork-api/internal/models"
)

func decodeAssignment(t *testing.T, resp *http.Response) dto.AssignmentResponse {
	t.Helper()

	var envelope struct {
		Success bool                   `json:"success"`
		Data    dto.AssignmentResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func TestAssignmentCreateRequiresLecturer(t *testing.T) {
	app, db := setupSubmissionApp(t)

	jane := seedUser(t, db, "Jane", "jane@example.com", models.RoleStudent)
	prof := seedUser(t, db, "Prof", "prof@example.com", models.RoleLecturer)

	payload, err := json.Marshal(dto.AssignmentCreateRequest{
		Title:          "Term Paper",
		Description:    "Write about concurrency control",
		Deadline:       time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
		AllowedFormats: "pdf,docx",
		MaxFileSizeMB:  5,
	})
	require.NoError(t, err)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(string(payload))), jane)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	req = asUser(httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(string(payload))), prof)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	created := decodeAssignment(t, resp)
	require.Equal(t, "Term Paper", created.Title)
	require.Equal(t, prof.ID, created.CreatedBy)
	require.Equal(t, []string{"pdf", "docx"}, created.AllowedFormats)
}

func TestAssignmentCreateRejectsPastDeadline(t *testing.T) {
	app, db := setupSubmissionApp(t)

	prof := seedUser(t, db, "Prof", "prof@example.com", models.RoleLecturer)

	payload, err := json.Marshal(dto.AssignmentCreateRequest{
		Title:    "Term Paper",
		Deadline: time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(string(payload))), prof)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssignmentListAndGet(t *testing.T) {
	app, db := setupSubmissionApp(t)

	jane := seedUser(t, db, "Jane", "jane@example.com", models.RoleStudent)
	assignment := seedAssignment(t, db, time.Now().Add(time.Hour))

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/v1/assignments", nil), jane)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []dto.AssignmentResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(t, envelope.Data, 1)

	req = asUser(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/assignments/%d", assignment.ID), nil), jane)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, assignment.ID, decodeAssignment(t, resp).ID)

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/v1/assignments/999", nil), jane)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classwork-labs/classwork-api/internal/config"
	"github.com/classwork-labs/classwork-api/internal/dto"
	"github.com/classwork-labs/classwork-api/internal/handler"
	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/repository"
	"github.com/classwork-labs/classwork-api/internal/router"
	"github.com/classwork-labs/classwork-api/internal/service"
	"github.com/classwork-labs/classwork-api/pkg/mail"
)

type recordingSender struct {
	bodies []string
}

func (s *recordingSender) Send(_ context.Context, message mail.Message) error {
	s.bodies = append(s.bodies, message.Body)
	return nil
}

func setupPasswordResetApp(t *testing.T) (*fiber.App, *gorm.DB, *recordingSender) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.New(io.Discard)
	sender := &recordingSender{}
	resetService := service.NewPasswordResetService(
		repository.NewUserRepository(db),
		client,
		sender,
		validator.New(validator.WithRequiredStructEnabled()),
		10*time.Minute,
		logger,
	)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		PasswordResetHandler: handler.NewPasswordResetHandler(resetService, logger),
	})

	return app, db, sender
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestPasswordResetEndpoints(t *testing.T) {
	app, db, sender := setupPasswordResetApp(t)

	user := models.User{Name: "Jane", Email: "jane@example.com", Role: models.RoleStudent, PasswordHash: "old"}
	require.NoError(t, db.Create(&user).Error)

	resp := postJSON(t, app, "/api/v1/password-reset/request", dto.PasswordResetRequest{Email: user.Email})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, sender.bodies, 1)

	code := regexp.MustCompile(`\b(\d{6})\b`).FindString(sender.bodies[0])
	require.Len(t, code, 6)

	wrongCode := "999999"
	if code == wrongCode {
		wrongCode = "111111"
	}
	resp = postJSON(t, app, "/api/v1/password-reset/confirm", dto.PasswordResetConfirm{
		Email:       user.Email,
		Code:        wrongCode,
		NewPassword: "fresh-password",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/password-reset/confirm", dto.PasswordResetConfirm{
		Email:       user.Email,
		Code:        code,
		NewPassword: "fresh-password",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	require.NotEqual(t, "old", updated.PasswordHash)
}

func TestPasswordResetRequestUnknownEmailReturnsNotFound(t *testing.T) {
	app, _, sender := setupPasswordResetApp(t)

	resp := postJSON(t, app, "/api/v1/password-reset/request", dto.PasswordResetRequest{Email: "ghost@example.com"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Empty(t, sender.bodies)
}

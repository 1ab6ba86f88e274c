package service

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classwork-labs/classwork-api/internal/dto"
	"github.com/classwork-labs/classwork-api/internal/models"
	"github.com/classwork-labs/classwork-api/internal/repository"
	"github.com/classwork-labs/classwork-api/pkg/mail"
)

var resetCodePattern = regexp.MustCompile(`\b(\d{6})\b`)

type captureSender struct {
	messages []mail.Message
}

func (s *captureSender) Send(_ context.Context, message mail.Message) error {
	s.messages = append(s.messages, message)
	return nil
}

func (s *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, s.messages)
	match := resetCodePattern.FindStringSubmatch(s.messages[len(s.messages)-1].Body)
	require.Len(t, match, 2, "reset email must contain a six digit code")
	return match[1]
}

func setupPasswordReset(t *testing.T, ttl time.Duration) (PasswordResetService, *captureSender, *miniredis.Miniredis, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sender := &captureSender{}
	svc := NewPasswordResetService(
		repository.NewUserRepository(db),
		client,
		sender,
		validator.New(validator.WithRequiredStructEnabled()),
		ttl,
		zerolog.New(io.Discard),
	)

	return svc, sender, mini, db
}

func TestPasswordResetFlow(t *testing.T) {
	svc, sender, _, db := setupPasswordReset(t, 10*time.Minute)

	user := models.User{Name: "Jane", Email: "jane@example.com", Role: models.RoleStudent, PasswordHash: "old-hash"}
	require.NoError(t, db.Create(&user).Error)

	ctx := context.Background()
	require.NoError(t, svc.Request(ctx, dto.PasswordResetRequest{Email: "Jane@Example.com"}))
	code := sender.lastCode(t)

	require.NoError(t, svc.Confirm(ctx, dto.PasswordResetConfirm{
		Email:       "jane@example.com",
		Code:        code,
		NewPassword: "brand-new-password",
	}))

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	require.NotEqual(t, "old-hash", updated.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("brand-new-password")))

	// Codes are single use.
	err := svc.Confirm(ctx, dto.PasswordResetConfirm{
		Email:       "jane@example.com",
		Code:        code,
		NewPassword: "another-password",
	})
	require.ErrorIs(t, err, ErrResetCodeInvalid)
}

func TestPasswordResetRequestUnknownEmail(t *testing.T) {
	svc, sender, _, _ := setupPasswordReset(t, 10*time.Minute)

	err := svc.Request(context.Background(), dto.PasswordResetRequest{Email: "nobody@example.com"})
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Empty(t, sender.messages)
}

func TestPasswordResetConfirmRejectsWrongCode(t *testing.T) {
	svc, sender, _, db := setupPasswordReset(t, 10*time.Minute)

	user := models.User{Name: "Jane", Email: "jane@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)

	ctx := context.Background()
	require.NoError(t, svc.Request(ctx, dto.PasswordResetRequest{Email: user.Email}))
	_ = sender.lastCode(t)

	err := svc.Confirm(ctx, dto.PasswordResetConfirm{
		Email:       user.Email,
		Code:        "000000",
		NewPassword: "brand-new-password",
	})
	require.ErrorIs(t, err, ErrResetCodeInvalid)
}

func TestPasswordResetCodeExpires(t *testing.T) {
	svc, sender, mini, db := setupPasswordReset(t, time.Minute)

	user := models.User{Name: "Jane", Email: "jane@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)

	ctx := context.Background()
	require.NoError(t, svc.Request(ctx, dto.PasswordResetRequest{Email: user.Email}))
	code := sender.lastCode(t)

	mini.FastForward(2 * time.Minute)

	err := svc.Confirm(ctx, dto.PasswordResetConfirm{
		Email:       user.Email,
		Code:        code,
		NewPassword: "brand-new-password",
	})
	require.ErrorIs(t, err, ErrResetCodeInvalid)
}

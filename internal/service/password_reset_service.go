package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/classwork-labs/classwork-api/internal/dto"
	"github.com/classwork-labs/classwork-api/internal/repository"
	"github.com/classwork-labs/classwork-api/pkg/mail"
)

var (
	// ErrUserNotFound indicates no account exists for the given email.
	ErrUserNotFound = errors.New("no account found for this email address")
	// ErrResetCodeInvalid indicates the reset code is wrong or has expired.
	ErrResetCodeInvalid = errors.New("invalid or expired reset code")
)

// PasswordResetService issues short-lived reset codes and exchanges them for
// new passwords. Codes live in Redis under a TTL, so expiry needs no sweeper.
type PasswordResetService interface {
	Request(ctx context.Context, payload dto.PasswordResetRequest) error
	Confirm(ctx context.Context, payload dto.PasswordResetConfirm) error
}

type passwordResetService struct {
	users     repository.UserRepository
	redis     *redis.Client
	sender    mail.Sender
	validator *validator.Validate
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewPasswordResetService constructs the password reset service.
func NewPasswordResetService(users repository.UserRepository, redisClient *redis.Client, sender mail.Sender, validate *validator.Validate, ttl time.Duration, logger zerolog.Logger) PasswordResetService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &passwordResetService{
		users:     users,
		redis:     redisClient,
		sender:    sender,
		validator: validate,
		ttl:       ttl,
		logger:    logger.With().Str("component", "password_reset_service").Logger(),
	}
}

func (s *passwordResetService) Request(ctx context.Context, payload dto.PasswordResetRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	// Only the digest is stored; a leaked cache never reveals live codes.
	if err := s.redis.Set(ctx, resetCodeKey(user.Email), digestCode(code), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	message := mail.Message{
		To:      user.Email,
		Subject: "Password Reset Code",
		Body: fmt.Sprintf("Hello %s,\n\nYour password reset code is %s. It expires in %d minutes.\n\nIf you did not request a reset, you can ignore this message.",
			user.Name, code, int(s.ttl.Minutes())),
	}
	if err := s.sender.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password reset code issued")

	return nil
}

func (s *passwordResetService) Confirm(ctx context.Context, payload dto.PasswordResetConfirm) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResetCodeInvalid
		}
		return err
	}

	stored, err := s.redis.Get(ctx, resetCodeKey(user.Email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrResetCodeInvalid
		}
		return fmt.Errorf("failed to read reset code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(digestCode(payload.Code))) != 1 {
		return ErrResetCodeInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	// Codes are single use.
	if err := s.redis.Del(ctx, resetCodeKey(user.Email)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to consume reset code")
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password reset completed")

	return nil
}

func resetCodeKey(email string) string {
	return "password-reset:" + strings.ToLower(strings.TrimSpace(email))
}

func digestCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

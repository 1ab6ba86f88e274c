package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classwork-labs/classwork-api/internal/dto"
	"github.com/classwork-labs/classwork-api/internal/service"
	"github.com/classwork-labs/classwork-api/internal/utils"
)

// PasswordResetHandler manages the reset-code request/confirm endpoints.
type PasswordResetHandler struct {
	service service.PasswordResetService
	logger  zerolog.Logger
}

// NewPasswordResetHandler builds a password reset handler instance.
func NewPasswordResetHandler(service service.PasswordResetService, logger zerolog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{
		service: service,
		logger:  logger.With().Str("component", "password_reset_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *PasswordResetHandler) Register(router fiber.Router) {
	router.Post("/request", h.request)
	router.Post("/confirm", h.confirm)
}

func (h *PasswordResetHandler) request(c *fiber.Ctx) error {
	var payload dto.PasswordResetRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Request(c.Context(), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "password reset code sent", nil)
}

func (h *PasswordResetHandler) confirm(c *fiber.Ctx) error {
	var payload dto.PasswordResetConfirm
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.Confirm(c.Context(), payload); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "password reset successfully", nil)
}

func (h *PasswordResetHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrResetCodeInvalid):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

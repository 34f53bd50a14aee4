package auth

import (
	"context"
	"errors"

	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/logger"
	"note-vault/internal/services/auth"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthService defines the interface for auth service
type AuthService interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) (*auth.AuthResponse, error)
	SignIn(ctx context.Context, req auth.SignInRequest) (*auth.AuthResponse, error)
}

// Handlers contains the auth HTTP handlers
type Handlers struct {
	authService AuthService
	validator   *validator.Validate
}

// NewHandlers creates new auth handlers
func NewHandlers(authService AuthService, validator *validator.Validate) *Handlers {
	return &Handlers{
		authService: authService,
		validator:   validator,
	}
}

// SignUp handles user registration
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignUpRequest true "Sign up request"
// @Success 201 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/sign-up [post]
func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req auth.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		logger.L().Warn("failed to parse signup request body", "handler", "SignUp", "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := h.validator.Struct(req); err != nil {
		logger.L().Warn("signup request validation failed", "handler", "SignUp", "error", err)
		return httperr.InvalidInput(err)
	}

	resp, err := h.authService.SignUp(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, auth.ErrRegistrationFailed) {
			logger.L().Info("signup rejected", "handler", "SignUp", "error", err)
			return httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: auth.ErrRegistrationFailed.Error()})
		}
		logger.L().Error("signup service failed", "handler", "SignUp", "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// SignIn handles user authentication
// @Summary Authenticate a user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SignInRequest true "Sign in request"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 429 {object} httperr.E
// @Router /auth/sign-in [post]
func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req auth.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		logger.L().Warn("failed to parse signin request body", "handler", "SignIn", "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := h.validator.Struct(req); err != nil {
		logger.L().Warn("signin request validation failed", "handler", "SignIn", "error", err)
		return httperr.InvalidInput(err)
	}

	resp, err := h.authService.SignIn(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.L().Info("signin rejected", "handler", "SignIn", "ip", c.IP())
			return httperr.Fail(httperr.E{Status: fiber.StatusUnauthorized, Message: auth.ErrInvalidCredentials.Error()})
		}
		logger.L().Error("signin service failed", "handler", "SignIn", "error", err)
		return httperr.Fail(httperr.ErrInternal)
	}

	return c.JSON(resp)
}

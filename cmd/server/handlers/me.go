package handlers

import (
	"context"
	"errors"

	"note-vault/cmd/server/handlers/handlerutil"
	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/logger"
	"note-vault/internal/services/auth"

	"github.com/gofiber/fiber/v2"
)

// UserGetter loads the account behind a token.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*auth.User, error)
}

// Me returns the account of the token owner.
// @Summary Get current user
// @Description Get current user information
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} auth.User
// @Failure 401 {object} httperr.E
// @Router /me [get]
func Me(users UserGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := handlerutil.GetUserID(c)
		if err != nil {
			return err
		}

		user, err := users.GetUser(c.UserContext(), userID)
		if errors.Is(err, auth.ErrUserNotFound) {
			logger.L().Info("token refers to a missing user", "handler", "Me", "userID", userID)
			return httperr.Fail(httperr.ErrUnauthorized)
		}
		if err != nil {
			logger.L().Error("user lookup failed", "handler", "Me", "userID", userID, "error", err)
			return httperr.Fail(httperr.ErrInternal)
		}

		return c.JSON(user)
	}
}

package middlewares

import (
	"note-vault/cmd/server/ctxkeys"
	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/config"
	"note-vault/internal/logger"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWT returns a configured Fiber middleware that:
//
//   - validates the Bearer token signature using cfg.JWTSecret
//   - makes sure the token carries a "user_id" claim
//   - stores the user id and email in ctx.Locals so downstream handlers can
//     trust them.
//
// On any problem it bubbles up a 401 via the global httperr handler.
func JWT(cfg config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{
			JWTAlg: jwtware.HS256,
			Key:    []byte(cfg.JWTSecret),
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return httperr.Fail(httperr.ErrUnauthorized)
			}
			claims, _ := token.Claims.(jwt.MapClaims)

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				logger.L().Warn("token without user_id", "path", c.Path())
				return httperr.Fail(httperr.ErrUnauthorized)
			}
			if claims["exp"] == nil {
				logger.L().Warn("token without expiry", "path", c.Path())
				return httperr.Fail(httperr.ErrUnauthorized)
			}

			email, _ := claims["email"].(string)
			c.Locals(ctxkeys.UserIDKey, userID)
			c.Locals(ctxkeys.UserEmailKey, email)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			logger.L().Debug("jwt rejected", "path", c.Path(), "error", err)
			return httperr.Fail(httperr.ErrUnauthorized)
		},
	})
}

package handlerutil

import (
	"errors"

	"note-vault/cmd/server/ctxkeys"
	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// GetUserID extracts the authenticated user id placed by the JWT middleware.
func GetUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(ctxkeys.UserIDKey).(string)
	if !ok || userID == "" {
		logger.L().Error("user ID not found in context", "handler", "getUserID", "path", c.Path())
		return "", httperr.Fail(httperr.ErrUnauthorized)
	}
	return userID, nil
}

// ParseAndValidateBody parses request body and validates it
func ParseAndValidateBody(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	userID, _ := GetUserID(c)

	if err := c.BodyParser(req); err != nil {
		logger.L().Warn("failed to parse request body", "handler", handlerName, "userID", userID, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := v.Struct(req); err != nil {
		logger.L().Warn("request validation failed", "handler", handlerName, "userID", userID, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// ParseAndValidateQuery parses query parameters and validates them
func ParseAndValidateQuery(c *fiber.Ctx, req any, v *validator.Validate, handlerName string) error {
	userID, _ := GetUserID(c)

	if err := c.QueryParser(req); err != nil {
		logger.L().Warn("failed to parse query params", "handler", handlerName, "userID", userID, "error", err)
		return httperr.Fail(httperr.ErrBadRequest)
	}

	if err := v.Struct(req); err != nil {
		logger.L().Warn("query validation failed", "handler", handlerName, "userID", userID, "error", err)
		return httperr.InvalidInput(err)
	}

	return nil
}

// PathParam returns a required path parameter, answering 404 when it is blank.
func PathParam(c *fiber.Ctx, name, handlerName string, notFoundErr error) (string, error) {
	value := c.Params(name)
	if value == "" {
		logger.L().Warn("missing path parameter", "handler", handlerName, "param", name, "path", c.Path())
		return "", httperr.NotFound(notFoundErr)
	}
	return value, nil
}

// ErrorMapping routes sentinel errors to HTTP statuses.
type ErrorMapping struct {
	NotFound   []error
	BadRequest []error
}

// HandleServiceError maps a service error to an HTTP error. Unknown errors are
// logged and forwarded as 500 with their message.
func HandleServiceError(c *fiber.Ctx, err error, handlerName, userID string, m ErrorMapping) error {
	logFields := []any{"handler", handlerName, "userID", userID, "error", err}
	if id := c.Params("id"); id != "" {
		logFields = append(logFields, "noteID", id)
	}

	for _, target := range m.NotFound {
		if errors.Is(err, target) {
			logger.L().Info("resource not found", logFields...)
			return httperr.NotFound(target)
		}
	}
	for _, target := range m.BadRequest {
		if errors.Is(err, target) {
			logger.L().Info("request rejected", logFields...)
			return httperr.Fail(httperr.E{Status: fiber.StatusBadRequest, Message: target.Error()})
		}
	}

	logger.L().Error("service operation failed", logFields...)
	return httperr.Fail(httperr.InternalError(err.Error()))
}

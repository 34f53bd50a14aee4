package handlers

import (
	"context"

	"note-vault/cmd/server/handlers/handlerutil"
	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/logger"
	"note-vault/internal/services/tags"

	"github.com/gofiber/fiber/v2"
)

// TagLister reads the tag records of a user.
type TagLister interface {
	List(ctx context.Context, userID string) ([]tags.Tag, error)
}

// TagsResponse lists the tag records of the caller.
type TagsResponse struct {
	Tags []tags.Tag `json:"tags"`
}

// Tags lists the tag records of the token owner.
// @Summary List tags
// @Tags tags
// @Produce json
// @Security Bearer
// @Success 200 {object} handlers.TagsResponse
// @Failure 401 {object} httperr.E
// @Failure 500 {object} httperr.E
// @Router /tags [get]
func Tags(lister TagLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := handlerutil.GetUserID(c)
		if err != nil {
			return err
		}

		list, err := lister.List(c.UserContext(), userID)
		if err != nil {
			logger.L().Error("tag listing failed", "handler", "Tags", "userID", userID, "error", err)
			return httperr.Fail(httperr.InternalError(err.Error()))
		}
		if list == nil {
			list = []tags.Tag{}
		}
		return c.JSON(TagsResponse{Tags: list})
	}
}

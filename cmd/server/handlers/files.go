package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"note-vault/cmd/server/handlers/httperr"
	"note-vault/internal/logger"
	"note-vault/internal/services/blob"

	"github.com/gofiber/fiber/v2"
)

// Files serves media stored by the blob backend. Ids are unguessable ULIDs,
// so the route is public like the URLs handed out on notes.
// @Summary Download a media file
// @Tags files
// @Produce octet-stream
// @Param bucket path string true "Bucket"
// @Param id path string true "File ID"
// @Success 200 {file} binary
// @Failure 404 {object} httperr.E
// @Failure 503 {object} httperr.E
// @Router /files/{bucket}/{id} [get]
func Files(storage blob.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bucket, id := c.Params("bucket"), c.Params("id")
		if bucket == "" || id == "" {
			return httperr.NotFound(blob.ErrFileNotFound)
		}

		var buf bytes.Buffer
		err := storage.Download(c.UserContext(), bucket, id, &buf)
		switch {
		case errors.Is(err, blob.ErrFileNotFound):
			return httperr.NotFound(blob.ErrFileNotFound)
		case errors.Is(err, blob.ErrUnavailable):
			logger.L().Warn("blob storage unavailable", "handler", "Files", "bucket", bucket, "id", id)
			return httperr.Fail(httperr.ErrServiceUnavailable)
		case err != nil:
			logger.L().Error("file download failed", "handler", "Files", "bucket", bucket, "id", id, "error", err)
			return httperr.Fail(httperr.ErrInternal)
		}

		c.Set(fiber.HeaderContentType, http.DetectContentType(buf.Bytes()))
		c.Set(fiber.HeaderCacheControl, "private, max-age=86400, immutable")
		return c.Send(buf.Bytes())
	}
}

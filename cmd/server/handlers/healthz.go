package handlers

import (
	"context"
	"time"

	"note-vault/internal/clients/mongo"
	"note-vault/internal/store"

	"github.com/gofiber/fiber/v2"
)

const HealthzTimeout = 5 * time.Second

// Healthz returns a handler reporting whether the document store answers.
// @Summary Health check
// @Description Check if the server and its document store are healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func Healthz(p store.Pinger, backend string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		if p == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "down",
				"error":  "store not initialized",
			})
		}

		if err := p.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "down",
				"error":  err.Error(),
			})
		}

		body := fiber.Map{
			"status": "ok",
			"store":  backend,
		}
		if backend == "mongo" {
			body["replica_set"] = mongo.IsReplicaSet()
		}
		return c.JSON(body)
	}
}

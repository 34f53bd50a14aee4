package middlewares

import (
	"net/http/httptest"
	"testing"
	"time"

	"note-vault/cmd/server/handlers/httperr"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRateLimiter(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(200) }

	t.Run("limits after max", func(t *testing.T) {
		app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler})
		app.Use(BuildRateLimiter(1, time.Minute, "/healthz"))
		app.Get("/sign-in", ok)
		app.Get("/healthz", ok)

		codes := []int{}
		for range 2 {
			resp, err := app.Test(httptest.NewRequest("GET", "/sign-in", nil))
			require.NoError(t, err)
			codes = append(codes, resp.StatusCode)
		}
		assert.Equal(t, []int{200, 429}, codes)

		resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("disabled", func(t *testing.T) {
		app := fiber.New()
		app.Use(BuildRateLimiter(0, time.Minute))
		app.Get("/", ok)

		for range 5 {
			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}
	})
}

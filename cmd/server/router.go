package main

import (
	"time"

	"note-vault/cmd/server/handlers"
	"note-vault/cmd/server/handlers/auth"
	"note-vault/cmd/server/handlers/httperr"
	notesHandlers "note-vault/cmd/server/handlers/notes"
	"note-vault/cmd/server/middlewares"
	"note-vault/internal/config"
	"note-vault/internal/logger"
	authServices "note-vault/internal/services/auth"
	"note-vault/internal/services/blob"
	notesServices "note-vault/internal/services/notes"
	"note-vault/internal/services/tags"
	"note-vault/internal/store"

	_ "note-vault/docs" // Load swagger docs

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
)

const (
	RateLimitExpiration = 1 * time.Minute
	// base64 inflates media payloads by a third.
	bodyLimitOverhead = 4.0 / 3.0
)

// routerDeps are the collaborators the HTTP layer talks to.
type routerDeps struct {
	cfg       config.Config
	validator *validator.Validate
	auth      *authServices.Service
	notes     *notesServices.Service
	tags      *tags.Reconciler
	hub       *notesServices.Hub
	blobs     blob.Storage
	pinger    store.Pinger
	stats     middlewares.RuntimeStats
}

func bodyLimit(maxUploadMB int) int {
	return int(float64(maxUploadMB)*bodyLimitOverhead*1024*1024) + 64*1024
}

// setupRouter configures and returns a Fiber app with all routes
func setupRouter(d routerDeps) *fiber.App {
	cfg := d.cfg

	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		Immutable:    true,
		BodyLimit:    bodyLimit(cfg.MaxUploadMB),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Content-Type, Authorization",
	}))

	if cfg.RouteMetricsEnabled {
		middlewares.AttachMetrics(app, d.stats.Collectors()...)
	}

	// outside the versioned API so probes are not logged
	app.Get("/healthz", handlers.Healthz(d.pinger, cfg.StoreBackend))

	app.Get("/docs/*", swagger.HandlerDefault)

	if d.blobs != nil {
		app.Get("/files/:bucket/:id", handlers.Files(d.blobs))
	}

	var v1 fiber.Router
	if cfg.RequestLoggingEnabled {
		v1 = app.Group("/api/v1", fiberlogger.New())
		logger.L().Info("request logging enabled")
	} else {
		v1 = app.Group("/api/v1")
		logger.L().Info("request logging disabled")
	}

	jwtMiddleware := middlewares.JWT(cfg)
	limiterMW := middlewares.BuildRateLimiter(cfg.SignInRatePerMin, RateLimitExpiration)

	authH := auth.NewHandlers(d.auth, d.validator)
	authGrp := v1.Group("/auth", limiterMW)
	authGrp.Post("/sign-up", authH.SignUp)
	authGrp.Post("/sign-in", authH.SignIn)

	v1.Get("/me", jwtMiddleware, handlers.Me(d.auth))
	v1.Get("/tags", jwtMiddleware, handlers.Tags(d.tags))

	notesH := notesHandlers.NewHandlers(d.notes, d.validator)

	notesGrp := v1.Group("/notes", jwtMiddleware)
	notesGrp.Post("/", notesH.Create)
	notesGrp.Get("/", notesH.List)
	notesGrp.Get("/:id", notesH.Get)
	notesGrp.Patch("/:id", notesH.Update)
	notesGrp.Delete("/:id", notesH.Purge)
	notesGrp.Put("/:id/tasks", notesH.SaveTasks)
	notesGrp.Post("/:id/tasks/:taskId/toggle", notesH.ToggleTask)
	notesGrp.Post("/:id/trash", notesH.Trash)
	notesGrp.Post("/:id/restore", notesH.Restore)

	trashGrp := v1.Group("/trash", jwtMiddleware)
	trashGrp.Get("/", notesH.ListTrash)
	trashGrp.Delete("/", notesH.EmptyTrash)

	wsHandlers := notesHandlers.NewWebSocketHandlers(d.hub, d.auth, cfg.WSMaxSessionSec)
	app.Use("/ws", notesHandlers.LogWSConnections(d.auth))
	app.Get("/ws/notes/stream", wsHandlers.WSUpgrade, websocket.New(wsHandlers.WSNotesStream))

	return app
}

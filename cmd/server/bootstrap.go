package main

import (
	"context"
	"fmt"
	"log/slog"

	"note-vault/cmd/server/middlewares"
	"note-vault/internal/clients/mongo"
	"note-vault/internal/clients/s3"
	"note-vault/internal/config"
	authServices "note-vault/internal/services/auth"
	"note-vault/internal/services/blob"
	notesServices "note-vault/internal/services/notes"
	"note-vault/internal/services/reminders"
	"note-vault/internal/services/tags"
	"note-vault/internal/store"
	"note-vault/internal/utils"
	"note-vault/internal/utils/crypto"
)

const devSecretBytes = 32

// components holds every long-lived collaborator of the server.
type components struct {
	deps      routerDeps
	scheduler *reminders.TimerScheduler
	mongo     bool
}

// devSecret fills an empty JWT secret in dev mode so tokens still verify
// for the lifetime of the process.
func devSecret(cfg config.Config, log *slog.Logger) (config.Config, error) {
	if cfg.JWTSecret != "" || !cfg.DevMode {
		return cfg, nil
	}
	secret, err := crypto.RandomSecret(devSecretBytes)
	if err != nil {
		return cfg, err
	}
	cfg.JWTSecret = secret
	log.Warn("DEV_MODE without JWT_SECRET: using a random secret, tokens will not survive a restart")
	return cfg, nil
}

// buildComponents wires the store, blob storage, hub, scheduler and services
// selected by cfg.
func buildComponents(ctx context.Context, cfg config.Config, log *slog.Logger) (*components, error) {
	v, err := utils.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}

	var (
		st      store.Store
		pinger  store.Pinger
		blobs   blob.Storage
		stats   middlewares.RuntimeStats
		isMongo bool
	)

	switch cfg.StoreBackend {
	case config.BackendMemory:
		mem := store.NewMemory()
		st, pinger = mem, mem
		log.Warn("using the in-memory store, data is lost on restart")
	default:
		_, db, err := mongo.Init(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("mongo init: %w", err)
		}
		if err := mongo.EnsureIndexes(ctx, db, mongo.Collections{
			Notes: cfg.NotesCollection,
			Tags:  cfg.TagsCollection,
			Users: cfg.UsersCollection,
		}); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		docs := mongo.NewDocStore(db)
		st, pinger = docs, docs
		isMongo = true
	}

	var backend blob.Storage
	switch cfg.BlobBackend {
	case config.BackendGridFS:
		backend = mongo.NewGridFS(mongo.DB(), cfg.PublicBaseURL)
	case config.BackendS3:
		s3Storage, err := s3.New(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("s3 init: %w", err)
		}
		backend = s3Storage
	default:
		log.Info("blob storage disabled, inline media payloads are dropped")
	}
	if backend != nil {
		breaker := blob.NewBreaker(backend, blob.DefaultBreakerConfig(cfg.BlobBackend), log)
		blobs = breaker
		stats.BlobBreakerState = func() int { return int(breaker.State()) }
	}

	hub := notesServices.NewHub(cfg.WSOutboxBuffer)
	scheduler := reminders.NewTimerScheduler(func(r reminders.Reminder) {
		hub.Broadcast(context.Background(), notesServices.ReminderEvent(r))
	}, log)
	stats.Subscribers = hub.GetSubscriberCount
	stats.Dropped = func() uint64 {
		_, dropped := hub.Stats()
		return dropped
	}
	stats.PendingReminders = scheduler.Pending

	reconciler := tags.NewReconciler(st, cfg.TagsCollection, log)
	notesSvc := notesServices.NewService(st, blobs, reconciler, scheduler, hub, notesServices.Config{
		NotesCollection:  cfg.NotesCollection,
		MediaBucket:      cfg.BlobBucket,
		PurgeConcurrency: cfg.TrashPurgeConcurrency,
	}, log)
	authSvc := authServices.NewService(st, cfg.UsersCollection, cfg, log)

	return &components{
		deps: routerDeps{
			cfg:       cfg,
			validator: v,
			auth:      authSvc,
			notes:     notesSvc,
			tags:      reconciler,
			hub:       hub,
			blobs:     blobs,
			pinger:    pinger,
			stats:     stats,
		},
		scheduler: scheduler,
		mongo:     isMongo,
	}, nil
}

// rearmReminders schedules the reminders stored before the last restart.
func (c *components) rearmReminders(ctx context.Context, log *slog.Logger) {
	n, err := c.deps.notes.RescheduleReminders(ctx)
	if err != nil {
		log.Error("failed to re-arm reminders", "error", err)
		return
	}
	log.Info("reminders re-armed", "count", n)
}

// close releases what buildComponents opened.
func (c *components) close(ctx context.Context) error {
	c.scheduler.Stop()
	if !c.mongo {
		return nil
	}
	return mongo.Shutdown(ctx)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"note-vault/internal/config"
	"note-vault/internal/logger"

	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	cfg, err = devSecret(cfg, logg)
	if err != nil {
		logg.Error("dev secret", "err", err)
		os.Exit(1)
	}

	profiler, err := startProfiling(cfg, logg)
	if err != nil {
		logg.Warn("continuous profiling disabled", "err", err)
	}
	defer stopProfiling(profiler, logg)

	comps, err := buildComponents(ctx, cfg, logg)
	if err != nil {
		logg.Error("startup", "err", err)
		os.Exit(1)
	}
	comps.rearmReminders(ctx, logg)

	logg.Info("starting NoteVault", "port", cfg.AppPort, "store", cfg.StoreBackend, "blob", cfg.BlobBackend)

	app := setupRouter(comps.deps)
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return comps.close(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}

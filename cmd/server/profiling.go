package main

import (
	"fmt"
	"log/slog"

	"note-vault/internal/config"

	"github.com/grafana/pyroscope-go"
)

// slogPyroscope routes profiler messages into the service logger.
type slogPyroscope struct{ l *slog.Logger }

func (s slogPyroscope) Infof(format string, args ...any)  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s slogPyroscope) Debugf(format string, args ...any) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s slogPyroscope) Errorf(format string, args ...any) { s.l.Error(fmt.Sprintf(format, args...)) }

// startProfiling pushes CPU and heap profiles to PYROSCOPE_SERVER_ADDRESS.
// It returns nil when no address is configured.
func startProfiling(cfg config.Config, log *slog.Logger) (*pyroscope.Profiler, error) {
	if cfg.PyroscopeServerAddress == "" {
		return nil, nil
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "note-vault",
		ServerAddress:   cfg.PyroscopeServerAddress,
		Logger:          slogPyroscope{l: log.With("component", "pyroscope")},
		Tags:            map[string]string{"store": cfg.StoreBackend, "blob": cfg.BlobBackend},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, err
	}
	log.Info("continuous profiling enabled", "server", cfg.PyroscopeServerAddress)
	return p, nil
}

func stopProfiling(p *pyroscope.Profiler, log *slog.Logger) {
	if p == nil {
		return
	}
	if err := p.Stop(); err != nil {
		log.Warn("failed to stop profiler", "err", err)
	}
}

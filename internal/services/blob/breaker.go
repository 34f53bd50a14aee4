package blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker guarding a Storage backend.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns settings suited to interactive uploads.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Breaker wraps a Storage so repeated backend failures fail fast with ErrUnavailable.
type Breaker struct {
	next Storage
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Storage, cfg BreakerConfig, log *slog.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("blob storage breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// a missing file is a caller problem, not a backend failure
			return err == nil || errors.Is(err, ErrFileNotFound)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// State reports the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Upload implements Storage.
func (b *Breaker) Upload(ctx context.Context, bucket, id string, data []byte, contentType string) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.Upload(ctx, bucket, id, data, contentType)
	})
	if err != nil {
		return "", translateBreakerErr(err)
	}
	return res.(string), nil
}

// PublicURL implements Storage.
func (b *Breaker) PublicURL(ctx context.Context, bucket, fileID string) (string, error) {
	res, err := b.cb.Execute(func() (any, error) {
		return b.next.PublicURL(ctx, bucket, fileID)
	})
	if err != nil {
		return "", translateBreakerErr(err)
	}
	return res.(string), nil
}

// Download implements Storage.
func (b *Breaker) Download(ctx context.Context, bucket, fileID string, w io.Writer) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.next.Download(ctx, bucket, fileID, w)
	})
	return translateBreakerErr(err)
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}

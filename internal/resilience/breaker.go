// Package resilience wraps calls to external collaborators (MySQL, the
// space directory) in a circuit breaker so that a failing dependency is
// reported quickly instead of tying up request goroutines.
package resilience

import (
	"errors"
	"log/slog"

	"github.com/sony/gobreaker/v2"

	"github.com/D-Araya/Portafolio-bootcamp-arquitectura-cloud/internal/config"
)

// ErrOpen is returned instead of calling through while the breaker is open
// or while half-open probes are exhausted.
var ErrOpen = errors.New("circuit breaker open")

// Breaker is a named circuit breaker.  A nil *Breaker calls straight
// through, which is what callers get when breaking is disabled.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// New builds a Breaker from cfg.  isSuccessful classifies errors that do
// not indicate an unhealthy dependency (domain rejections, not-found); a
// nil classifier counts only nil errors as success.  It returns nil when
// cfg.Enabled is false.
func New(name string, cfg config.BreakerConfig, logger *slog.Logger, isSuccessful func(error) bool) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: isSuccessful,
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State returns the breaker state name ("closed", "half-open", "open").
func (b *Breaker) State() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}

// Call runs fn through the breaker.
func (b *Breaker) Call(fn func() error) error {
	_, err := Do(b, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// Do runs fn through b and returns its result.  Open-state refusals are
// reported as ErrOpen joined with the gobreaker error.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	var zero T
	out, err := b.cb.Execute(func() (any, error) { return fn() })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, errors.Join(ErrOpen, err)
	}
	if out == nil {
		return zero, err
	}
	return out.(T), err
}

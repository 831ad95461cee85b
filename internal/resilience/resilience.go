// Package resilience wraps a Bot API transport with a circuit breaker and
// retries of idempotent calls on transient failures.
package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker"

	"github.com/edgard/tgbotsdk/internal/api"
	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

// ErrCircuitOpen indicates the circuit breaker is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Config holds circuit breaker and retry settings.
type Config struct {
	Name          string
	MaxFailures   int
	ResetTimeout  time.Duration
	HalfOpenLimit int
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns the settings used for zero fields.
func DefaultConfig() Config {
	return Config{
		Name:          "bot_api",
		MaxFailures:   5,
		ResetTimeout:  30 * time.Second,
		HalfOpenLimit: 1,
		RetryAttempts: 3,
		RetryDelay:    200 * time.Millisecond,
	}
}

// Transport is an api.Transport guarded by a circuit breaker. Only
// transient failures count against the breaker: Bot API rejections such
// as a missing chat are answers, not outages.
type Transport struct {
	next   api.Transport
	cb     *gobreaker.CircuitBreaker
	cfg    Config
	logger *slog.Logger
}

// NewTransport wraps next.
func NewTransport(next api.Transport, cfg Config, logger *slog.Logger) *Transport {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = def.HalfOpenLimit
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "resilience")

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenLimit),
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Transport{
		next:   next,
		cb:     gobreaker.NewCircuitBreaker(settings),
		cfg:    cfg,
		logger: log,
	}
}

// State returns the breaker state: "closed", "half-open" or "open".
func (t *Transport) State() string {
	return t.cb.State().String()
}

// SendRequest forwards the call while the breaker is closed. Idempotent
// methods are retried on transient failures.
func (t *Transport) SendRequest(ctx context.Context, endpoint string, params api.Params) (json.RawMessage, error) {
	attempts := uint(1)
	if idempotent(endpoint) {
		attempts = uint(t.cfg.RetryAttempts)
	}

	var result json.RawMessage
	err := retry.Do(
		func() error {
			out, err := t.cb.Execute(func() (interface{}, error) {
				return t.next.SendRequest(ctx, endpoint, params)
			})
			if err != nil {
				if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
					return retry.Unrecoverable(apperrors.NewAPIError(endpoint, 0, "circuit breaker open", 0, err))
				}
				return err
			}
			result, _ = out.(json.RawMessage)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(t.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			t.logger.DebugContext(ctx, "Bot API call failed, retrying", "method", endpoint, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsTransient reports whether err is a network failure or a Bot API
// server error, as opposed to a rejected request or a cancelled context.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, api.ErrInvalidParams) || errors.Is(err, gobreaker.ErrOpenState) {
		return false
	}
	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.StatusCode == 0 || apiErr.StatusCode >= 500
}

// idempotent reports whether repeating the method cannot duplicate an
// effect in a chat.
func idempotent(method string) bool {
	return strings.HasPrefix(method, "get")
}

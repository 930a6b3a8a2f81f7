package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jonwraymond/sdkruntime/sdkerr"
)

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	// Default: "connector"
	Name string

	// Threshold is the number of consecutive failures that opens the
	// circuit.
	// Default: 5
	Threshold uint32

	// HalfOpenRequests is the number of trial calls allowed while half-open.
	// Default: 1
	HalfOpenRequests uint32

	// OpenTimeout is how long the circuit stays open before going half-open.
	// Default: 60s
	OpenTimeout time.Duration

	// Interval clears failure counts while closed. Zero never clears.
	// Default: 0
	Interval time.Duration

	// TripOnServerError counts 5xx responses as failures.
	// Default: false
	TripOnServerError bool

	// Logger receives state change events.
	// Default: zerolog.Nop()
	Logger *zerolog.Logger
}

// Breaker is a Connector guarded by a circuit breaker. Transport errors
// count as failures; cancellations by the caller do not.
type Breaker struct {
	next   Connector
	config BreakerConfig
	cb     *gobreaker.CircuitBreaker
}

var errServerFault = errors.New("connector: server error response")

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Connector, cfg BreakerConfig) *Breaker {
	// Apply defaults
	if cfg.Name == "" {
		cfg.Name = "connector"
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = 5
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}

	threshold := cfg.Threshold
	logger := cfg.Logger
	return &Breaker{
		next:   next,
		config: cfg,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.HalfOpenRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().
					Str("breaker", name).
					Stringer("from", from).
					Stringer("to", to).
					Msg("circuit breaker state changed")
			},
			IsSuccessful: func(err error) bool {
				var ce *sdkerr.ConnectorError
				if errors.As(err, &ce) && ce.IsRejected() {
					return true
				}
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// Call sends req through the breaker.
func (b *Breaker) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	result, err := b.cb.Execute(func() (any, error) {
		resp, err := b.next.Call(ctx, req)
		if err != nil {
			return nil, err
		}
		if b.config.TripOnServerError && resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerFault
		}
		return resp, nil
	})

	switch {
	case errors.Is(err, errServerFault):
		return result.(*http.Response), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, &sdkerr.ConnectorError{
			Kind: sdkerr.ConnectorRejected,
			Err:  fmt.Errorf("%w (breaker %q)", ErrCircuitOpen, b.config.Name),
		}
	case err != nil:
		return nil, err
	}
	return result.(*http.Response), nil
}

// State returns the breaker state name: "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Counts returns the breaker's current request counts.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.cb.Counts()
}

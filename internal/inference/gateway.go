package inference

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Config tunes retry, timeout and circuit-breaker behavior.
type Config struct {
	// Model is used when Infer is called with an empty model.
	Model string

	// Endpoint is consulted on every Infer call.
	Endpoint func() string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// MaxAttempts is the total number of transport calls per Infer.
	MaxAttempts int

	// BackoffStep is multiplied by the number of failed attempts so far to
	// get the wait before the next one.
	BackoffStep time.Duration

	// BreakerFailures consecutive unavailable calls open the breaker.
	// Zero disables it.
	BreakerFailures int

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultConfig returns the stock limits: 60s per attempt, three attempts,
// 500ms linear backoff, breaker after five consecutive failures.
func DefaultConfig() Config {
	return Config{
		Model:           "llama3.1:latest",
		Timeout:         60 * time.Second,
		MaxAttempts:     3,
		BackoffStep:     500 * time.Millisecond,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithSleep replaces the backoff wait, letting tests observe delays
// without real time passing.
func WithSleep(fn SleepFunc) Option {
	return func(g *Gateway) { g.sleep = fn }
}

// WithLogger sets the gateway logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// Gateway is the single path to the local inference service. It owns the
// retry loop, the per-attempt timeout, the degraded fallback and the
// circuit breaker. It is safe for concurrent use.
type Gateway struct {
	transport Transport
	cfg       Config
	breaker   *gobreaker.CircuitBreaker
	sleep     SleepFunc
	logger    *zap.Logger
}

// NewGateway builds a gateway over transport.
func NewGateway(transport Transport, cfg Config, opts ...Option) *Gateway {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Endpoint == nil {
		cfg.Endpoint = func() string { return "http://localhost:11434/api/generate" }
	}

	g := &Gateway{
		transport: transport,
		cfg:       cfg,
		sleep:     sleepContext,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("inference")

	if cfg.BreakerFailures > 0 {
		threshold := uint32(cfg.BreakerFailures)
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "inference",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// A caller abandoning its request says nothing about the service.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				g.logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return g
}

// Infer sends prompt to the service and returns its text. numCtx <= 0 omits
// the context-window hint. An empty model uses the configured default.
//
// Transport, status and decoding failures are retried up to MaxAttempts
// times; the final failure is returned as *UnavailableError. A reply with no
// text is not an error: it yields FallbackText with Degraded set.
func (g *Gateway) Infer(
	ctx context.Context,
	model, prompt string,
	numCtx int,
) (Result, error) {
	if model == "" {
		model = g.cfg.Model
	}
	req := Request{Model: model, Prompt: prompt}
	if numCtx > 0 {
		req.Options = &Options{NumCtx: numCtx}
	}

	if g.breaker == nil {
		return g.attempt(ctx, req)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.attempt(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, &UnavailableError{Err: err}
		}
		return Result{}, err
	}
	return out.(Result), nil
}

func (g *Gateway) attempt(ctx context.Context, req Request) (Result, error) {
	endpoint := g.cfg.Endpoint()

	var lastErr error
	attempts := 0
	for n := 1; n <= g.cfg.MaxAttempts; n++ {
		if n > 1 {
			if err := g.sleep(ctx, time.Duration(n-1)*g.cfg.BackoffStep); err != nil {
				lastErr = err
				break
			}
		}

		attempts++
		text, err := g.generate(ctx, endpoint, req)
		if err == nil {
			if text == "" {
				g.logger.Debug("empty generation, using fallback", zap.Int("attempt", n))
				return Result{Text: FallbackText, Degraded: true}, nil
			}
			return Result{Text: text}, nil
		}

		lastErr = err
		g.logger.Debug("inference attempt failed",
			zap.Int("attempt", n),
			zap.String("endpoint", endpoint),
			zap.Error(err))

		if ctx.Err() != nil {
			break
		}
	}

	g.logger.Warn("inference unavailable",
		zap.Int("attempts", attempts),
		zap.String("endpoint", endpoint),
		zap.Error(lastErr))
	return Result{}, &UnavailableError{Attempts: attempts, Err: lastErr}
}

func (g *Gateway) generate(ctx context.Context, endpoint string, req Request) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	return g.transport.Generate(ctx, endpoint, req)
}

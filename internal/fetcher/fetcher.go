// Package fetcher implements the retrying object store read used by the
// conversion pipeline. A single logical fetch makes up to MaxRetries
// attempts, backing off exponentially between retryable failures, and
// collapses the result into a closed set of outcomes.
package fetcher

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openconvert/markitdown-server/internal/metrics"
	"github.com/openconvert/markitdown-server/internal/objectstore"
)

// Outcome classifies the result of a fetch.
type Outcome int

const (
	// OutcomeContent means the object was read successfully.
	OutcomeContent Outcome = iota
	// OutcomeNotFound means the object does not exist. Terminal.
	OutcomeNotFound
	// OutcomeAccessDenied means the caller lacks permission. Terminal.
	OutcomeAccessDenied
	// OutcomeExhausted means every attempt failed with a retryable error.
	OutcomeExhausted
)

// String returns the outcome name for logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeContent:
		return "content"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeAccessDenied:
		return "access_denied"
	case OutcomeExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Result is the tri-state (plus content) fetch result. Fatal unclassified
// errors are reported through Fetch's error return instead.
type Result struct {
	Outcome       Outcome
	Content       []byte
	CorrelationID string
	Attempts      int
}

// Options tunes a single fetch call.
type Options struct {
	// MaxRetries is the total attempt budget, minimum 1.
	MaxRetries int
	// BackoffFactor is the base delay in seconds; the wait before the
	// n-th retry is BackoffFactor * 2^(n-1).
	BackoffFactor float64
	// Region is recorded on log lines for cross-region diagnostics.
	Region string
	// VersionID optionally pins an object version.
	VersionID string
}

const (
	// DefaultMaxRetries matches the conversion pipeline's retry budget.
	DefaultMaxRetries = 2
	// DefaultBackoffFactor is the base backoff delay in seconds.
	DefaultBackoffFactor = 0.5
)

// Fetcher reads objects with retry and classification. It holds no
// per-request state; concurrent Fetch calls are independent.
type Fetcher struct {
	store  objectstore.Store
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	newID  func() string
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithIDGenerator replaces the correlation id generator.
func WithIDGenerator(newID func() string) Option {
	return func(f *Fetcher) {
		f.newID = newID
	}
}

// New constructs a Fetcher over the given store.
func New(store objectstore.Store, logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:  store,
		logger: logger,
		sleep:  sleepContext,
		newID:  shortID,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads bucket/key, retrying transient failures with exponential
// backoff. Terminal store errors (missing object, access denied) return
// immediately without retry. Unclassified errors propagate as the error
// return and are distinct from an exhausted retry budget.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string, opts Options) (Result, error) {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BackoffFactor <= 0 {
		opts.BackoffFactor = DefaultBackoffFactor
	}

	corrID := f.newID()
	logger := f.logger.With(
		zap.String("correlation_id", corrID),
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.String("region", opts.Region),
	)

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		logger.Info("fetching object",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", opts.MaxRetries),
		)

		data, err := f.store.GetObject(ctx, bucket, key, objectstore.GetOptions{VersionID: opts.VersionID})
		if err == nil {
			metrics.ObserveFetchAttempt("success")
			logger.Info("fetched object", zap.Int("bytes", len(data)))
			return Result{
				Outcome:       OutcomeContent,
				Content:       data,
				CorrelationID: corrID,
				Attempts:      attempt + 1,
			}, nil
		}

		code, classified := objectstore.CodeOf(err)
		switch {
		case classified && code == objectstore.CodeNoSuchKey:
			metrics.ObserveFetchAttempt("not_found")
			logger.Error("object not found", zap.Error(err))
			return Result{Outcome: OutcomeNotFound, CorrelationID: corrID, Attempts: attempt + 1}, nil

		case classified && code == objectstore.CodeAccessDenied:
			metrics.ObserveFetchAttempt("access_denied")
			logger.Error("access denied", zap.Error(err))
			return Result{Outcome: OutcomeAccessDenied, CorrelationID: corrID, Attempts: attempt + 1}, nil

		case classified && code.Retryable():
			metrics.ObserveFetchAttempt("retryable")
			if attempt < opts.MaxRetries-1 {
				wait := backoffDelay(opts.BackoffFactor, attempt)
				logger.Warn("temporary fetch error, backing off",
					zap.String("code", string(code)),
					zap.Duration("wait", wait),
					zap.Error(err),
				)
				metrics.ObserveBackoff(wait)
				if sleepErr := f.sleep(ctx, wait); sleepErr != nil {
					return Result{CorrelationID: corrID, Attempts: attempt + 1},
						fmt.Errorf("[%s] fetch canceled during backoff: %w", corrID, sleepErr)
				}
			}
			// Last attempt falls through to exhaustion.

		default:
			metrics.ObserveFetchAttempt("fatal")
			logger.Error("unclassified fetch error", zap.Error(err))
			return Result{CorrelationID: corrID, Attempts: attempt + 1},
				fmt.Errorf("[%s] fetch %s/%s: %w", corrID, bucket, key, err)
		}
	}

	metrics.ObserveFetchAttempt("exhausted")
	logger.Error("fetch retries exhausted", zap.Int("attempts", opts.MaxRetries))
	return Result{Outcome: OutcomeExhausted, CorrelationID: corrID, Attempts: opts.MaxRetries}, nil
}

// backoffDelay computes the delay before the retry following the given
// zero-based attempt index: factor * 2^attempt seconds.
func backoffDelay(factor float64, attempt int) time.Duration {
	return time.Duration(factor * math.Pow(2, float64(attempt)) * float64(time.Second))
}

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

// shortID returns a compact correlation id for log lines.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

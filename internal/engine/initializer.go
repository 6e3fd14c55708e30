package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/openconvert/markitdown-server/internal/metrics"
)

// State is the lifecycle of the process-wide engine handle.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// String returns the state name for logs and health payloads.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Factory constructs the engine. Construction is expected to be expensive
// and may fail deterministically for a given process environment.
type Factory func() (Engine, error)

// Initializer lazily constructs the engine exactly once per process.
// A failed construction is cached: retrying cannot self-heal without a
// fresh process and would pay the construction cost on every request.
type Initializer struct {
	mu      sync.Mutex
	state   atomic.Int32
	engine  Engine
	err     error
	factory Factory
	logger  *zap.Logger
}

// NewInitializer wraps factory in a lazy, once-only initializer.
func NewInitializer(factory Factory, logger *zap.Logger) *Initializer {
	return &Initializer{factory: factory, logger: logger}
}

// Get returns the engine, constructing it on first call. Concurrent
// callers during construction block until the in-flight attempt resolves.
// After a failed attempt every call returns the cached error without
// re-attempting construction.
func (i *Initializer) Get() (Engine, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	switch State(i.state.Load()) {
	case StateReady:
		return i.engine, nil
	case StateFailed:
		return nil, i.err
	}

	i.setState(StateInitializing)
	i.logger.Info("initializing conversion engine")
	eng, err := i.factory()
	if err != nil {
		i.err = fmt.Errorf("engine initialization failed: %w", err)
		i.setState(StateFailed)
		i.logger.Error("conversion engine initialization failed", zap.Error(err))
		return nil, i.err
	}
	i.engine = eng
	i.setState(StateReady)
	i.logger.Info("conversion engine ready")
	return eng, nil
}

// State reports the current lifecycle state without blocking on an
// in-flight construction.
func (i *Initializer) State() State {
	return State(i.state.Load())
}

func (i *Initializer) setState(s State) {
	i.state.Store(int32(s))
	metrics.SetEngineState(int(s))
}

// Package stageexec executes constructed stage engines under an explicit
// capability descriptor.
//
// Stages differ in where their engine may run: most run directly on the
// calling goroutine, while GL-backed engines must live on a single OS thread
// that owns the rendering context for the engine's whole lifetime. The Engine
// encodes that choice as a Policy and owns the gating rules that turn a
// stage's GPU request plus the build's capabilities into either a policy or a
// backend-unavailability error.
package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/farent12/colmap/internal/compute"
	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/logging"
)

// Worker is a constructed, validated stage engine ready to run.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a plain function to the Worker interface.
type WorkerFunc func(ctx context.Context) error

// Run implements Worker.
func (f WorkerFunc) Run(ctx context.Context) error { return f(ctx) }

// Policy selects how the engine executes a worker.
type Policy int

const (
	// PolicyDirect runs the worker on the calling goroutine.
	PolicyDirect Policy = iota
	// PolicyContextAffine runs the worker on a dedicated OS-thread-locked
	// goroutine that owns an exclusive context; the caller blocks until the
	// worker returns.
	PolicyContextAffine
)

func (p Policy) String() string {
	switch p {
	case PolicyDirect:
		return "direct"
	case PolicyContextAffine:
		return "context_affine"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Engine runs stage workers under the capabilities it was constructed with.
type Engine struct {
	caps   compute.Capabilities
	logger *slog.Logger

	// contextMu serializes context-affine runs: at most one worker owns the
	// exclusive context at any time.
	contextMu sync.Mutex
}

// New constructs an engine. Capabilities are fixed for the engine's lifetime;
// a nil logger falls back to a no-op logger.
func New(caps compute.Capabilities, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{caps: caps, logger: logger}
}

// Capabilities returns the descriptor the engine was constructed with.
func (e *Engine) Capabilities() compute.Capabilities { return e.caps }

// ResolveGPUPolicy maps a stage's GPU request onto an execution policy. GPU
// work prefers CUDA, which manages its own device context and runs directly;
// without CUDA it needs the serialized GL context; without either backend the
// request cannot be satisfied.
func (e *Engine) ResolveGPUPolicy(useGPU bool) (Policy, error) {
	if !useGPU {
		return PolicyDirect, nil
	}
	switch {
	case e.caps.CUDA:
		return PolicyDirect, nil
	case e.caps.OpenGL:
		return PolicyContextAffine, nil
	default:
		return PolicyDirect, fmt.Errorf(
			"%w: gpu requested but neither cuda nor opengl is available (capabilities: %s)",
			fault.ErrBackendUnavailable, e.caps)
	}
}

// RequireCUDA gates stages that only run on CUDA devices.
func (e *Engine) RequireCUDA(stage string) error {
	if e.caps.CUDA {
		return nil
	}
	return fault.Wrap(fault.ErrBackendUnavailable, stage, "",
		"requires a cuda device, none available", nil)
}

// Run executes worker under the given policy, logging start, completion, and
// failure with the stage subject. The worker's error is returned unmodified.
func (e *Engine) Run(ctx context.Context, stage string, worker Worker, policy Policy) error {
	if worker == nil {
		return fault.Wrap(fault.ErrBackendUnavailable, stage, "run",
			"no engine registered for this stage", nil)
	}
	logger := logging.WithStage(e.logger, stage)
	logger.Info("engine started", logging.String("policy", policy.String()))

	started := time.Now()
	var err error
	switch policy {
	case PolicyDirect:
		err = worker.Run(ctx)
	case PolicyContextAffine:
		err = e.runPinned(ctx, worker)
	default:
		err = fmt.Errorf("unknown execution policy %d", int(policy))
	}

	elapsed := time.Since(started)
	if err != nil {
		logger.Error("engine failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, fault.Kind(err)),
			logging.Duration("elapsed", elapsed))
		return err
	}
	logger.Info("engine completed", logging.Duration("elapsed", elapsed))
	return nil
}

func (e *Engine) runPinned(ctx context.Context, worker Worker) error {
	if !e.caps.OpenGL {
		return fmt.Errorf("%w: context-affine execution requires an opengl runtime", fault.ErrBackendUnavailable)
	}
	e.contextMu.Lock()
	defer e.contextMu.Unlock()

	done := make(chan error, 1)
	go func() {
		// The goroutine holds its thread for the worker's whole lifetime so
		// thread-local context state never migrates. Leaving the thread
		// locked discards it when the goroutine exits, along with whatever
		// state the worker left behind.
		runtime.LockOSThread()
		done <- worker.Run(ctx)
	}()
	return <-done
}

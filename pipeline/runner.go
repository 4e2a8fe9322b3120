package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/farent12/colmap/internal/compute"
	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/project"
	"github.com/farent12/colmap/internal/stageexec"
)

// Stage names used as logging subjects and error context.
const (
	StageFeatureExtraction  = "feature_extraction"
	StageExhaustiveMatching = "exhaustive_matching"
	StageSparseMapping      = "sparse_mapping"
	StageModelConversion    = "model_conversion"
	StageImageUndistortion  = "image_undistortion"
	StageDatabaseCreation   = "database_creation"
	StagePatchMatchStereo   = "patch_match_stereo"
	StageStereoFusion       = "stereo_fusion"
	StagePoissonMeshing     = "poisson_meshing"
	StageDelaunayMeshing    = "delaunay_meshing"
)

// Runner executes reconstruction stages against project documents. Stage
// methods are serialized: the engines share process-wide state (GPU contexts,
// thread pools), so a Runner admits one stage at a time. A single Runner is
// meant to live for the whole process.
type Runner struct {
	logger  *slog.Logger
	caps    compute.Capabilities
	exec    *stageexec.Engine
	engines EngineSet

	mu sync.Mutex
}

// Option configures a Runner during construction.
type Option func(*Runner)

// WithLogger sets the base logger. Nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCapabilities fixes the compute capability descriptor the runner gates
// GPU stages against.
func WithCapabilities(caps compute.Capabilities) Option {
	return func(r *Runner) { r.caps = caps }
}

// WithEngines wires the stage engine factories.
func WithEngines(engines EngineSet) Option {
	return func(r *Runner) { r.engines = engines }
}

// New constructs a Runner. Without options it carries a no-op logger, an
// empty capability descriptor, and no engines: every stage then fails with a
// backend-unavailability error, which keeps partial builds honest.
func New(opts ...Option) *Runner {
	r := &Runner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.exec = stageexec.New(r.caps, r.logger)
	return r
}

// Capabilities returns the compute descriptor the runner was built with.
func (r *Runner) Capabilities() compute.Capabilities { return r.caps }

// Engines returns the wired engine set.
func (r *Runner) Engines() EngineSet { return r.engines }

type stageFunc func(ctx context.Context, logger *slog.Logger, proj *project.Project) error

// run is the shared stage harness: serialize, tag a run id, resolve the
// project document, and bracket fn with start/outcome logs. Configuration
// problems are rejected before fn runs, so a stage with a bad project never
// touches the filesystem.
func (r *Runner) run(ctx context.Context, stage, projectPath string, req project.Requirements, fn stageFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.WithStage(r.logger, stage).With(
		logging.String(logging.FieldRunID, uuid.NewString()))

	proj, err := project.Resolve(projectPath, req)
	if err != nil {
		wrapped := fault.Wrap(fault.ErrConfiguration, stage, "resolve project", "", err)
		logger.Error("stage rejected",
			logging.Error(wrapped),
			logging.String(logging.FieldErrorKind, fault.Kind(wrapped)))
		return wrapped
	}

	logger.Info("stage started", logging.String("project", projectPath))
	started := time.Now()
	if err := fn(ctx, logger, proj); err != nil {
		logger.Error("stage failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, fault.Kind(err)),
			logging.Duration("elapsed", time.Since(started)))
		return err
	}
	logger.Info("stage completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}

// engineErr classifies a failure that came out of an engine run. Context
// cancellation and already-classified errors pass through unchanged;
// everything else is an engine fault.
func engineErr(stage, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if fault.Classified(err) {
		return err
	}
	return fault.Wrap(fault.ErrEngine, stage, operation, "", err)
}

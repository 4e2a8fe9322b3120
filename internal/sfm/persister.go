package sfm

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/sparse"
)

// SnapshotFunc writes the run's option snapshot into a model directory.
type SnapshotFunc func(dir string) error

// Persister is an Observer that writes completed models to numbered
// subdirectories of the output path. It keeps a watermark of flushed model
// indexes, so repeated events and the final flush after the engine returns
// never rewrite a model.
type Persister struct {
	manager  *sparse.Manager
	output   string
	snapshot SnapshotFunc
	logger   *slog.Logger
	flushed  int
}

// NewPersister returns a persister over the manager the mapping engine
// fills. snapshot may be nil when no option snapshot is wanted.
func NewPersister(manager *sparse.Manager, outputPath string, snapshot SnapshotFunc, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Persister{
		manager:  manager,
		output:   outputPath,
		snapshot: snapshot,
		logger:   logger,
	}
}

// HandleEvent flushes completed models when a model has been finished.
// Registration progress events are ignored.
func (p *Persister) HandleEvent(ctx context.Context, event Event) error {
	if event != EventLastImageRegistered {
		return nil
	}
	return p.Flush(ctx)
}

// Flush writes every model above the watermark. It is called for each
// finished model during the run and once more after the engine returns, so
// a model completed between the last event and engine shutdown still lands
// on disk.
func (p *Persister) Flush(ctx context.Context) error {
	for p.flushed < p.manager.Size() {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := p.flushed
		rec, err := p.manager.Get(idx)
		if err != nil {
			return err
		}
		dir := filepath.Join(p.output, strconv.Itoa(idx))
		if err := fsutil.EnsureDir(dir); err != nil {
			return fmt.Errorf("persist model %d: %w", idx, err)
		}
		if err := rec.Write(dir); err != nil {
			return fmt.Errorf("persist model %d: %w", idx, err)
		}
		if p.snapshot != nil {
			if err := p.snapshot(dir); err != nil {
				return fmt.Errorf("persist model %d snapshot: %w", idx, err)
			}
		}
		p.logger.Info("persisted model",
			logging.Int("model_index", idx),
			logging.String("path", dir),
			logging.String("shape", rec.Summary()))
		p.flushed++
	}
	return nil
}

// Flushed returns the number of models written so far.
func (p *Persister) Flushed() int {
	return p.flushed
}

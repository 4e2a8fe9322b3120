package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/farent12/colmap/internal/database"
	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/project"
)

// CreateDatabase initializes the reconstruction database at database_path.
// The parent directory must exist; re-running against an existing database is
// a no-op thanks to the schema ledger.
func (r *Runner) CreateDatabase(ctx context.Context, projectPath string) error {
	const stage = StageDatabaseCreation
	req := project.Requirements{
		Required: []string{project.KeyDatabasePath},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		if err := fsutil.CheckDirWritable(filepath.Dir(proj.DatabasePath)); err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "check database directory", "", err)
		}

		lock := flock.New(proj.DatabasePath + ".lock")
		locked, err := lock.TryLock()
		if err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "lock database", "", err)
		}
		if !locked {
			return fault.Wrap(fault.ErrPrecondition, stage, "lock database",
				"another process is initializing "+proj.DatabasePath, nil)
		}
		defer func() { _ = lock.Unlock() }()

		if err := database.Create(proj.DatabasePath); err != nil {
			return engineErr(stage, "create database", err)
		}
		logger.Info("database ready", logging.String("path", proj.DatabasePath))
		return nil
	})
}

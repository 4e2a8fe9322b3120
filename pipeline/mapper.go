package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/project"
	"github.com/farent12/colmap/internal/sfm"
	"github.com/farent12/colmap/internal/sparse"
	"github.com/farent12/colmap/internal/stageexec"
)

// snapshotName is the audit document written beside every persisted model.
const snapshotName = "project.toml"

// ReconstructSparse runs incremental mapping from the feature database.
//
// Starting from raw images, every model the mapper produces is persisted
// incrementally under `<mapper_output_path>/<index>/` together with a
// snapshot of the resolved project document. With mapper_input_path set, the
// run continues from the seed model instead and writes the single refined
// model flat into the output directory.
func (r *Runner) ReconstructSparse(ctx context.Context, projectPath string) error {
	const stage = StageSparseMapping
	req := project.Requirements{
		Required: []string{
			project.KeyDatabasePath,
			project.KeyImagePath,
			project.KeyMapperOutputPath,
		},
		Groups: []string{project.GroupMapper},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		// The output directory is never created implicitly: a typo here
		// would otherwise scatter models across the filesystem.
		if err := fsutil.CheckDirWritable(proj.MapperOutputPath); err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "check output path", "", err)
		}
		if !fsutil.ExistsFile(proj.DatabasePath) {
			return fault.Wrap(fault.ErrPrecondition, stage, "open database",
				proj.DatabasePath+" does not exist, run feature extraction first", nil)
		}

		var imageList []string
		if proj.MapperImageListPath != "" {
			list, err := fsutil.ReadLines(proj.MapperImageListPath)
			if err != nil {
				return fault.Wrap(fault.ErrConfiguration, stage, "read image list", "", err)
			}
			imageList = list
		}

		if r.engines.NewMapper == nil {
			return missingEngine(stage, "incremental mapping")
		}

		// One writer per output directory.
		lock := flock.New(filepath.Join(proj.MapperOutputPath, ".lock"))
		locked, err := lock.TryLock()
		if err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "lock output path", "", err)
		}
		if !locked {
			return fault.Wrap(fault.ErrPrecondition, stage, "lock output path",
				"another mapping run owns "+proj.MapperOutputPath, nil)
		}
		defer func() { _ = lock.Unlock() }()

		manager := sparse.NewManager()
		seeded := proj.MapperInputPath != ""
		if seeded {
			idx, err := manager.ReadSeed(proj.MapperInputPath)
			if err != nil {
				return fault.Wrap(fault.ErrPrecondition, stage, "read seed model", "", err)
			}
			seed, _ := manager.Get(idx)
			logger.Info("continuing from seed model",
				logging.String("input", proj.MapperInputPath),
				logging.String("shape", seed.Summary()))
		}

		mapper, err := r.engines.NewMapper(sfm.MapperSpec{
			DatabasePath: proj.DatabasePath,
			ImagePath:    proj.ImagePath,
			ImageList:    imageList,
			Manager:      manager,
			Options:      mapperOptions(proj.Mapper),
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}

		var persister *sfm.Persister
		if !seeded {
			snapshot := func(dir string) error {
				return proj.WriteSnapshot(filepath.Join(dir, snapshotName))
			}
			persister = sfm.NewPersister(manager, proj.MapperOutputPath, snapshot, logger)
			mapper.SetObserver(persister)
		}

		if err := r.exec.Run(ctx, stage, mapper, stageexec.PolicyDirect); err != nil {
			return engineErr(stage, "run", err)
		}
		if manager.Size() == 0 {
			return fault.Wrap(fault.ErrEngine, stage, "",
				"mapping produced no model", nil)
		}

		if seeded {
			rec, err := manager.Get(0)
			if err != nil {
				return fault.Wrap(fault.ErrEngine, stage, "collect model", "", err)
			}
			if err := rec.Write(proj.MapperOutputPath); err != nil {
				return fault.Wrap(fault.ErrEngine, stage, "write model", "", err)
			}
			logger.Info("refined model written",
				logging.String("path", proj.MapperOutputPath),
				logging.String("shape", rec.Summary()))
			return nil
		}

		// Models appended after the last registration event still need to
		// land on disk.
		if err := persister.Flush(ctx); err != nil {
			return engineErr(stage, "persist models", err)
		}
		for idx := 0; idx < manager.Size(); idx++ {
			rec, err := manager.Get(idx)
			if err != nil {
				return fault.Wrap(fault.ErrEngine, stage, "collect model", "", err)
			}
			logger.Info("model complete",
				logging.Int("model_index", idx),
				logging.String("shape", rec.Summary()))
		}
		return nil
	})
}

func mapperOptions(opts project.Mapper) sfm.MapperOptions {
	return sfm.MapperOptions{
		MinNumMatches:          opts.MinNumMatches,
		MultipleModels:         opts.MultipleModels,
		MaxNumModels:           opts.MaxNumModels,
		MaxModelOverlap:        opts.MaxModelOverlap,
		MinModelSize:           opts.MinModelSize,
		InitImageID1:           opts.InitImageID1,
		InitImageID2:           opts.InitImageID2,
		NumThreads:             opts.NumThreads,
		BARefineFocalLength:    opts.BARefineFocalLength,
		BARefinePrincipalPoint: opts.BARefinePrincipalPoint,
		BARefineExtraParams:    opts.BARefineExtraParams,
	}
}

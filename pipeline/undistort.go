package pipeline

import (
	"context"
	"log/slog"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/project"
	"github.com/farent12/colmap/internal/sparse"
	"github.com/farent12/colmap/internal/stageexec"
	"github.com/farent12/colmap/internal/undistort"
)

// UndistortImages removes lens distortion from the images referenced by the
// sparse model at model_input_path and writes a dense workspace in the
// configured layout under undistorter_output_path (created if missing).
func (r *Runner) UndistortImages(ctx context.Context, projectPath string) error {
	const stage = StageImageUndistortion
	req := project.Requirements{
		Required: []string{
			project.KeyImagePath,
			project.KeyModelInputPath,
			project.KeyUndistorterOutputPath,
			project.KeyUndistorterOutputType,
		},
		Groups: []string{project.GroupUndistortion},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		layout, err := undistort.ResolveLayout(proj.UndistorterOutputType)
		if err != nil {
			return err
		}

		model, err := sparse.Read(proj.ModelInputPath)
		if err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "read model", "", err)
		}
		logger.Info("model loaded",
			logging.String("input", proj.ModelInputPath),
			logging.String("shape", model.Summary()))

		if err := fsutil.EnsureDir(proj.UndistorterOutputPath); err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "create output path", "", err)
		}

		if r.engines.NewUndistorter == nil {
			return missingEngine(stage, "undistortion")
		}
		worker, err := r.engines.NewUndistorter(undistort.Spec{
			ImagePath:  proj.ImagePath,
			OutputPath: proj.UndistorterOutputPath,
			Layout:     layout,
			Model:      model,
			Options:    undistortOptions(proj.Undistortion),
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}
		return engineErr(stage, "run", r.exec.Run(ctx, stage, worker, stageexec.PolicyDirect))
	})
}

func undistortOptions(opts project.Undistortion) undistort.Options {
	return undistort.Options{
		BlankPixels:  opts.BlankPixels,
		MinScale:     opts.MinScale,
		MaxScale:     opts.MaxScale,
		MaxImageSize: opts.MaxImageSize,
		ROIMinX:      opts.ROIMinX,
		ROIMinY:      opts.ROIMinY,
		ROIMaxX:      opts.ROIMaxX,
		ROIMaxY:      opts.ROIMaxY,
	}
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/project"
)

// MatchExhaustive matches features between every image pair in the database
// and stores the verified two-view geometries. An optional image list
// restricts the pair set to the named images; an empty list file succeeds
// without running the engine.
func (r *Runner) MatchExhaustive(ctx context.Context, projectPath string) error {
	const stage = StageExhaustiveMatching
	req := project.Requirements{
		Required: []string{project.KeyDatabasePath},
		Groups:   []string{project.GroupMatching},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		if !fsutil.ExistsFile(proj.DatabasePath) {
			return fault.Wrap(fault.ErrPrecondition, stage, "open database",
				proj.DatabasePath+" does not exist, run feature extraction first", nil)
		}

		var imageList []string
		if proj.MatchesImageListPath != "" {
			list, err := fsutil.ReadLines(proj.MatchesImageListPath)
			if err != nil {
				return fault.Wrap(fault.ErrConfiguration, stage, "read image list", "", err)
			}
			if len(list) == 0 {
				logger.Info("image list is empty, nothing to match",
					logging.String("image_list", proj.MatchesImageListPath))
				return nil
			}
			imageList = list
		}

		if r.engines.NewExhaustiveMatcher == nil {
			return missingEngine(stage, "exhaustive matching")
		}
		policy, err := r.exec.ResolveGPUPolicy(proj.Matching.UseGPU)
		if err != nil {
			return err
		}

		worker, err := r.engines.NewExhaustiveMatcher(ExhaustiveMatcherSpec{
			DatabasePath:   proj.DatabasePath,
			ImageList:      imageList,
			GPUIndex:       proj.Matching.GPUIndex,
			MaxRatio:       proj.Matching.MaxRatio,
			MaxDistance:    proj.Matching.MaxDistance,
			CrossCheck:     proj.Matching.CrossCheck,
			BlockSize:      proj.Matching.BlockSize,
			GuidedMatching: proj.Matching.GuidedMatching,
			NumThreads:     proj.Matching.NumThreads,
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}
		return engineErr(stage, "run", r.exec.Run(ctx, stage, worker, policy))
	})
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/farent12/colmap/internal/camera"
	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/project"
)

// ExtractFeatures detects keypoints and computes descriptors for the images
// under the project's image path, storing both in the reconstruction
// database. An optional image list restricts the run to the named images; an
// empty list file succeeds without running the engine.
func (r *Runner) ExtractFeatures(ctx context.Context, projectPath string) error {
	const stage = StageFeatureExtraction
	req := project.Requirements{
		Required: []string{project.KeyDatabasePath, project.KeyImagePath},
		Groups:   []string{project.GroupExtraction},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		if err := camera.VerifyParams(proj.Extraction.CameraModel, proj.Extraction.CameraParams); err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "validate camera", "", err)
		}

		var imageList []string
		if proj.FeaturesImageListPath != "" {
			list, err := fsutil.ReadLines(proj.FeaturesImageListPath)
			if err != nil {
				return fault.Wrap(fault.ErrConfiguration, stage, "read image list", "", err)
			}
			if len(list) == 0 {
				logger.Info("image list is empty, nothing to extract",
					logging.String("image_list", proj.FeaturesImageListPath))
				return nil
			}
			imageList = list
		}

		if r.engines.NewFeatureExtractor == nil {
			return missingEngine(stage, "feature extraction")
		}
		policy, err := r.exec.ResolveGPUPolicy(proj.Extraction.UseGPU)
		if err != nil {
			return err
		}

		worker, err := r.engines.NewFeatureExtractor(FeatureExtractorSpec{
			DatabasePath:   proj.DatabasePath,
			ImagePath:      proj.ImagePath,
			ImageList:      imageList,
			CameraModel:    proj.Extraction.CameraModel,
			CameraParams:   proj.Extraction.CameraParams,
			SingleCamera:   proj.Extraction.SingleCamera,
			GPUIndex:       proj.Extraction.GPUIndex,
			MaxImageSize:   proj.Extraction.MaxImageSize,
			MaxNumFeatures: proj.Extraction.MaxNumFeatures,
			NumThreads:     proj.Extraction.NumThreads,
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}
		return engineErr(stage, "run", r.exec.Run(ctx, stage, worker, policy))
	})
}

package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/logging"
	"github.com/farent12/colmap/internal/mvs"
	"github.com/farent12/colmap/internal/project"
	"github.com/farent12/colmap/internal/stageexec"
)

// RunPatchMatchStereo estimates depth and normal maps for the undistorted
// workspace at dense_workspace_path. The engine runs on CUDA only; without a
// CUDA device the stage fails before touching the workspace.
func (r *Runner) RunPatchMatchStereo(ctx context.Context, projectPath string) error {
	const stage = StagePatchMatchStereo
	req := project.Requirements{
		Required: []string{
			project.KeyDenseWorkspacePath,
			project.KeyDenseWorkspaceFormat,
		},
		Groups: []string{project.GroupPatchMatch},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		if err := r.exec.RequireCUDA(stage); err != nil {
			return err
		}
		workspace, err := r.workspace(stage, proj)
		if err != nil {
			return err
		}

		if r.engines.NewPatchMatcher == nil {
			return missingEngine(stage, "patch-match stereo")
		}
		worker, err := r.engines.NewPatchMatcher(mvs.PatchMatchSpec{
			Workspace: workspace,
			Options:   patchMatchOptions(proj.PatchMatch),
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}
		// The CUDA engine owns its device context, no GL pinning involved.
		return engineErr(stage, "run", r.exec.Run(ctx, stage, worker, stageexec.PolicyDirect))
	})
}

// FuseStereo merges the workspace's depth and normal maps into a single
// point cloud, written to dense_output_path with its visibility companion
// beside it.
func (r *Runner) FuseStereo(ctx context.Context, projectPath string) error {
	const stage = StageStereoFusion
	req := project.Requirements{
		Required: []string{
			project.KeyDenseWorkspacePath,
			project.KeyDenseWorkspaceFormat,
			project.KeyFusionInputType,
			project.KeyDenseOutputPath,
		},
		Groups: []string{project.GroupStereoFusion},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		inputType, err := mvs.ResolveFusionInput(proj.FusionInputType)
		if err != nil {
			return err
		}
		workspace, err := r.workspace(stage, proj)
		if err != nil {
			return err
		}

		if r.engines.NewFuser == nil {
			return missingEngine(stage, "stereo fusion")
		}
		fuser, err := r.engines.NewFuser(mvs.FusionSpec{
			Workspace: workspace,
			InputType: inputType,
			Options:   fusionOptions(proj.StereoFusion),
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}
		if err := r.exec.Run(ctx, stage, fuser, stageexec.PolicyDirect); err != nil {
			return engineErr(stage, "run", err)
		}

		points := fuser.Points()
		if err := fsutil.EnsureDir(filepath.Dir(proj.DenseOutputPath)); err != nil {
			return fault.Wrap(fault.ErrPrecondition, stage, "create output directory", "", err)
		}
		if err := mvs.WritePoints(proj.DenseOutputPath, points); err != nil {
			return engineErr(stage, "write fused cloud", err)
		}
		if err := mvs.WriteVisibility(proj.DenseOutputPath+".vis", fuser.Visibility()); err != nil {
			return engineErr(stage, "write visibility", err)
		}
		logger.Info("fused cloud written",
			logging.Int("points", len(points)),
			logging.String("output", proj.DenseOutputPath))
		return nil
	})
}

// workspace validates the dense workspace location and resolves its format.
func (r *Runner) workspace(stage string, proj *project.Project) (mvs.Workspace, error) {
	format, err := mvs.ResolveWorkspaceFormat(proj.DenseWorkspaceFormat)
	if err != nil {
		return mvs.Workspace{}, err
	}
	if err := fsutil.CheckDirWritable(proj.DenseWorkspacePath); err != nil {
		return mvs.Workspace{}, fault.Wrap(fault.ErrPrecondition, stage, "check workspace", "", err)
	}
	return mvs.Workspace{
		Path:           proj.DenseWorkspacePath,
		Format:         format,
		PMVSOptionName: proj.PMVSOptionName,
	}, nil
}

func patchMatchOptions(opts project.PatchMatch) mvs.PatchMatchOptions {
	return mvs.PatchMatchOptions{
		MaxImageSize:    opts.MaxImageSize,
		GPUIndex:        opts.GPUIndex,
		WindowRadius:    opts.WindowRadius,
		WindowStep:      opts.WindowStep,
		NumSamples:      opts.NumSamples,
		NumIterations:   opts.NumIterations,
		GeomConsistency: opts.GeomConsistency,
		Filter:          opts.Filter,
		CacheSize:       opts.CacheSize,
	}
}

func fusionOptions(opts project.StereoFusion) mvs.FusionOptions {
	return mvs.FusionOptions{
		MinNumPixels:      opts.MinNumPixels,
		MaxNumPixels:      opts.MaxNumPixels,
		MaxTraversalDepth: opts.MaxTraversalDepth,
		MaxReprojError:    opts.MaxReprojError,
		MaxDepthError:     opts.MaxDepthError,
		MaxNormalError:    opts.MaxNormalError,
		CheckNumImages:    opts.CheckNumImages,
		CacheSize:         opts.CacheSize,
	}
}

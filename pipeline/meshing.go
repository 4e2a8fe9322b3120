package pipeline

import (
	"context"
	"log/slog"

	"github.com/farent12/colmap/internal/fault"
	"github.com/farent12/colmap/internal/fsutil"
	"github.com/farent12/colmap/internal/mesh"
	"github.com/farent12/colmap/internal/project"
	"github.com/farent12/colmap/internal/sparse"
	"github.com/farent12/colmap/internal/stageexec"
)

// MeshPoisson reconstructs a surface from the fused point cloud at
// poisson_input_path and writes it to poisson_output_path.
func (r *Runner) MeshPoisson(ctx context.Context, projectPath string) error {
	const stage = StagePoissonMeshing
	req := project.Requirements{
		Required: []string{
			project.KeyPoissonInputPath,
			project.KeyPoissonOutputPath,
		},
		Groups: []string{project.GroupPoissonMeshing},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		if !fsutil.ExistsFile(proj.PoissonInputPath) {
			return fault.Wrap(fault.ErrPrecondition, stage, "check input",
				proj.PoissonInputPath+" does not exist, run stereo fusion first", nil)
		}

		if r.engines.NewPoissonMesher == nil {
			return missingEngine(stage, "poisson meshing")
		}
		worker, err := r.engines.NewPoissonMesher(mesh.PoissonSpec{
			InputPath:  proj.PoissonInputPath,
			OutputPath: proj.PoissonOutputPath,
			Options:    poissonOptions(proj.PoissonMeshing),
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}
		return engineErr(stage, "run", r.exec.Run(ctx, stage, worker, stageexec.PolicyDirect))
	})
}

// MeshDelaunay reconstructs a surface by tetrahedralizing either a sparse
// model or a dense workspace, per delaunay_input_type.
func (r *Runner) MeshDelaunay(ctx context.Context, projectPath string) error {
	const stage = StageDelaunayMeshing
	req := project.Requirements{
		Required: []string{
			project.KeyDelaunayInputPath,
			project.KeyDelaunayOutputPath,
			project.KeyDelaunayInputType,
		},
		Groups: []string{project.GroupDelaunayMeshing},
	}
	return r.run(ctx, stage, projectPath, req, func(ctx context.Context, logger *slog.Logger, proj *project.Project) error {
		inputType, err := mesh.ResolveDelaunayInput(proj.DelaunayInputType)
		if err != nil {
			return err
		}
		if !fsutil.ExistsDir(proj.DelaunayInputPath) {
			return fault.Wrap(fault.ErrPrecondition, stage, "check input",
				proj.DelaunayInputPath+" does not exist", nil)
		}
		if inputType == mesh.DelaunayInputSparse && !sparse.ModelPresent(proj.DelaunayInputPath) {
			return fault.Wrap(fault.ErrPrecondition, stage, "check input",
				"no sparse model found in "+proj.DelaunayInputPath, nil)
		}

		if r.engines.NewDelaunayMesher == nil {
			return missingEngine(stage, "delaunay meshing")
		}
		worker, err := r.engines.NewDelaunayMesher(mesh.DelaunaySpec{
			InputPath:  proj.DelaunayInputPath,
			OutputPath: proj.DelaunayOutputPath,
			InputType:  inputType,
			Options:    delaunayOptions(proj.DelaunayMeshing),
		})
		if err != nil {
			return fault.Wrap(fault.ErrConfiguration, stage, "construct engine", "", err)
		}
		return engineErr(stage, "run", r.exec.Run(ctx, stage, worker, stageexec.PolicyDirect))
	})
}

func poissonOptions(opts project.PoissonMeshing) mesh.PoissonOptions {
	return mesh.PoissonOptions{
		PointWeight: opts.PointWeight,
		Depth:       opts.Depth,
		Color:       opts.Color,
		Trim:        opts.Trim,
		NumThreads:  opts.NumThreads,
	}
}

func delaunayOptions(opts project.DelaunayMeshing) mesh.DelaunayOptions {
	return mesh.DelaunayOptions{
		MaxProjDist:             opts.MaxProjDist,
		MaxDepthDist:            opts.MaxDepthDist,
		VisibilitySigma:         opts.VisibilitySigma,
		DistanceSigmaFactor:     opts.DistanceSigmaFactor,
		QualityRegularization:   opts.QualityRegularization,
		MaxSideLengthFactor:     opts.MaxSideLengthFactor,
		MaxSideLengthPercentile: opts.MaxSideLengthPercentile,
		NumThreads:              opts.NumThreads,
	}
}

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/farent12/colmap/pipeline"
)

type stageOp = func(*pipeline.Runner, context.Context, string) error

func newStageCommands(ctx *commandContext) []*cobra.Command {
	stages := []struct {
		use   string
		short string
		op    stageOp
	}{
		{"feature_extractor", "Extract image features into the database", (*pipeline.Runner).ExtractFeatures},
		{"exhaustive_matcher", "Match features between all image pairs", (*pipeline.Runner).MatchExhaustive},
		{"mapper", "Reconstruct sparse models incrementally", (*pipeline.Runner).ReconstructSparse},
		{"model_converter", "Convert a sparse model to another format", (*pipeline.Runner).ConvertModel},
		{"image_undistorter", "Undistort images into a dense workspace", (*pipeline.Runner).UndistortImages},
		{"database_creator", "Create an empty reconstruction database", (*pipeline.Runner).CreateDatabase},
		{"patch_match_stereo", "Estimate depth and normal maps (CUDA)", (*pipeline.Runner).RunPatchMatchStereo},
		{"stereo_fusion", "Fuse depth maps into a point cloud", (*pipeline.Runner).FuseStereo},
		{"poisson_mesher", "Reconstruct a surface with Poisson meshing", (*pipeline.Runner).MeshPoisson},
		{"delaunay_mesher", "Reconstruct a surface with Delaunay meshing", (*pipeline.Runner).MeshDelaunay},
	}

	cmds := make([]*cobra.Command, 0, len(stages))
	for _, stage := range stages {
		cmds = append(cmds, newStageCommand(ctx, stage.use, stage.short, stage.op))
	}
	return cmds
}

func newStageCommand(ctx *commandContext, use, short string, op stageOp) *cobra.Command {
	var projectPath string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.ensureRunner()
			if err != nil {
				return err
			}
			return op(runner, cmd.Context(), projectPath)
		},
	}
	cmd.Flags().StringVar(&projectPath, "project_path", "", "Path to the project document")
	_ = cmd.MarkFlagRequired("project_path")
	return cmd
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farent12/colmap/internal/camera"
	"github.com/farent12/colmap/internal/mesh"
	"github.com/farent12/colmap/internal/mvs"
	"github.com/farent12/colmap/internal/undistort"
	"github.com/farent12/colmap/pipeline"
)

func newBackendsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Show compute capabilities and stage engine availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := ctx.ensureRunner()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "compute: %s\n\n", runner.Capabilities())

			statuses := runner.Engines().Status()
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "available"
				if !status.Available {
					state = "not in this build"
				}
				rows = append(rows, []string{status.Stage, state})
			}
			fmt.Fprintln(stdout, renderTable(stdout, []string{"Stage", "Engine"}, rows))
			return nil
		},
	}
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "Show the accepted tokens for every closed option set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			rows := [][]string{
				{"converter_output_type", strings.Join(pipeline.ModelFormatTokens(), ", ")},
				{"undistorter_output_type", strings.Join(undistort.LayoutTokens(), ", ")},
				{"dense_workspace_format", strings.Join(mvs.WorkspaceFormatTokens(), ", ")},
				{"fusion_input_type", strings.Join(mvs.FusionInputTokens(), ", ")},
				{"delaunay_input_type", strings.Join(mesh.DelaunayInputTokens(), ", ")},
			}
			fmt.Fprintln(stdout, renderTable(stdout, []string{"Option", "Accepted values"}, rows))
			fmt.Fprintln(stdout)

			models := camera.Models()
			modelRows := make([][]string, 0, len(models))
			for _, model := range models {
				modelRows = append(modelRows, []string{
					strconv.Itoa(model.ID), model.Name, strconv.Itoa(model.NumParams),
				})
			}
			fmt.Fprintln(stdout, renderTable(stdout, []string{"ID", "Camera model", "Params"}, modelRows))
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farent12/colmap/internal/project"
)

func newProjectCommand() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project document utilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample project document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := project.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "", "Destination for the project document")
	_ = initCmd.MarkFlagRequired("path")

	projectCmd.AddCommand(initCmd)
	return projectCmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glucoreport/internal/config"
	"glucoreport/internal/examples"
)

func examplesCmd(global *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "examples",
		Short: "Create the example data folder and list its files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.Examples.Dir = dir
			}
			paths, err := config.ResolvePaths(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			files, err := examples.NewProvisioner(paths.ExampleDirs, logger).Provision(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Example data in %s:\n", examples.FolderFor(files))
			for _, f := range files {
				fmt.Fprintf(out, "  %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "example data folder to use or create")
	return cmd
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"glucoreport/internal/app"
)

func serveCmd(global *globalOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP shell",
		Long: `Start the HTTP shell: report submission, status, documents, session
simulation, a WebSocket progress stream on /ws and Prometheus metrics on
/metrics.

Examples:
  glucoreport serve
  glucoreport serve --host 0.0.0.0 --port 9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			core, err := app.NewCore(cfg, logger)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(core)
			if err != nil {
				_ = core.Close(context.Background())
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", cfg.Server.Addr())
			runErr := application.Run(ctx)
			if err := application.Stop(context.Background()); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

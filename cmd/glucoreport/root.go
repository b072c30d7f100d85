package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"glucoreport/internal/config"
	"glucoreport/internal/infrastructure"
	"glucoreport/pkg/contracts"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "glucoreport",
		Short:         "Glucose session reports from CSV and Excel exports",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: $GLUCO_CONFIG, ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(analyzeCmd(opts))
	rootCmd.AddCommand(simulateCmd(opts))
	rootCmd.AddCommand(examplesCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))

	return rootCmd
}

// load reads the configuration and builds the logger for one command.
func (o *globalOptions) load() (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

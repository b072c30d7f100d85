package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"glucoreport/internal/app"
	"glucoreport/internal/operations"
)

type analyzeOptions struct {
	outDir string
	title  string
	pdf    bool
	quiet  bool
}

func analyzeCmd(global *globalOptions) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Build a report from session files or folders",
		Long: `Build an HTML report from CSV/XLSX session exports.

Without paths the example data folder is used, and created with two sample
sessions when it does not exist yet.

Examples:
  glucoreport analyze ./sessions
  glucoreport analyze week1.csv week2.xlsx --pdf
  glucoreport analyze --out ./reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "report output directory")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "report title")
	cmd.Flags().BoolVar(&opts.pdf, "pdf", false, "also print the report to PDF (needs Chrome)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only print the report path")

	return cmd
}

func runAnalyze(cmd *cobra.Command, global *globalOptions, opts *analyzeOptions, paths []string) error {
	cfg, logger, err := global.load()
	if err != nil {
		return err
	}
	if opts.outDir != "" {
		cfg.Report.OutputDir = opts.outDir
	}

	out := cmd.OutOrStdout()
	var sinks []operations.Sink
	if !opts.quiet {
		sinks = append(sinks, progressPrinter{out: out})
	}

	core, err := app.NewCore(cfg, logger, sinks...)
	if err != nil {
		return err
	}
	defer core.Close(context.Background())

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	res, err := core.Pipeline.Run(ctx, operations.Request{
		Paths: paths,
		Title: opts.title,
		PDF:   opts.pdf || cfg.Report.PDF,
	})
	// Flush the progress lines before the summary.
	core.Status.Stop()
	if err != nil {
		return err
	}

	printResult(out, res, opts.quiet)
	return nil
}

// progressPrinter prints one line per progress update.
type progressPrinter struct {
	out io.Writer
}

// Deliver implements operations.Sink.
func (p progressPrinter) Deliver(u operations.Update) {
	prefix := ""
	switch u.Level {
	case operations.LevelWarning:
		prefix = "warning: "
	case operations.LevelError:
		prefix = "error: "
	}
	fmt.Fprintf(p.out, "[%3d%%] %-16s %s%s\n", u.Progress, u.Phase, prefix, u.Message)
}

func printResult(out io.Writer, res *operations.Result, quiet bool) {
	if quiet {
		fmt.Fprintln(out, res.ReportPath)
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Sessions:     %d from %d file(s) in %s\n", res.Summary.RecordCount, res.FileCount, res.SourceLabel)
	fmt.Fprintf(out, "Mean glucose: %.1f mg/dL (%s)\n", res.Summary.MeanGlucose, res.Summary.Band.Label())
	if res.UsedExamples {
		fmt.Fprintln(out, "Input:        example data")
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(out, "Warnings:     %d\n", len(res.Warnings))
	}
	if res.Fallback {
		fmt.Fprintln(out, "Note:         the output folder was not writable, the report went to the fallback folder")
	}
	fmt.Fprintf(out, "Report:       %s\n", res.ReportPath)
	if res.PDFPath != "" {
		fmt.Fprintf(out, "PDF:          %s\n", res.PDFPath)
	}
	fmt.Fprintf(out, "Done in %s\n", res.Duration.Round(time.Millisecond))
}

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"glucoreport/internal/exporter"
	"glucoreport/internal/simulator"
	"glucoreport/pkg/contracts/domain"
)

type simulateOptions struct {
	inputs  simulator.Inputs
	csvPath string
	append  bool
	jsonOut string
}

func simulateCmd(global *globalOptions) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate glucose for one session",
		Long: `Estimate the glucose level of one session from carbohydrates, walking
time and sleep, and print the matching advice.

Examples:
  glucoreport simulate --carbs 50 --walk 20 --sleep 7
  glucoreport simulate --carbs 80 --walk 10 --sleep 5 --csv session.csv
  glucoreport simulate --carbs 60 --walk 30 --csv sessions.csv --append`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, global, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.inputs.Carbs, "carbs", 0, "carbohydrates in grams (0-150)")
	cmd.Flags().Float64Var(&opts.inputs.Walk, "walk", 0, "walking time in minutes (0-120)")
	cmd.Flags().Float64Var(&opts.inputs.Sleep, "sleep", 7, "hours of sleep (3-12)")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "write the session to this CSV file")
	cmd.Flags().BoolVar(&opts.append, "append", false, "add the session to an existing --csv file")
	cmd.Flags().StringVar(&opts.jsonOut, "json", "", "write the session to this JSON file")
	_ = cmd.MarkFlagRequired("carbs")
	_ = cmd.MarkFlagRequired("walk")

	return cmd
}

func runSimulate(cmd *cobra.Command, global *globalOptions, opts *simulateOptions) error {
	_, logger, err := global.load()
	if err != nil {
		return err
	}

	res, err := simulator.Simulate(opts.inputs, time.Now())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printSimulation(out, res)

	exp := exporter.New("", logger)
	if opts.csvPath != "" {
		export := exp.ExportCSV
		if opts.append {
			export = exp.AppendCSV
		}
		path, err := export(opts.csvPath, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "CSV:  %s\n", path)
	}
	if opts.jsonOut != "" {
		path, err := exp.ExportJSON(opts.jsonOut, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "JSON: %s\n", path)
	}
	return nil
}

func printSimulation(out io.Writer, res simulator.Result) {
	fmt.Fprintf(out, "Estimated glucose: %.0f mg/dL (%s)\n", res.Glucose, res.Band().Label())
	fmt.Fprintf(out, "  carbs: +%.0f  walk: -%.0f  sleep: %s\n", res.CarbsEffect, res.WalkEffect, res.SleepText)
	fmt.Fprintln(out)
	for _, a := range res.Advice {
		fmt.Fprintf(out, "- %s: %s\n", a.Title, a.Text)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, domain.Disclaimer)
}

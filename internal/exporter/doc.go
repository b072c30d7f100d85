// Package exporter writes simulated sessions to disk.
//
// CSVWriter is the low level writer: headers, append mode, streaming and a
// UTF-8 BOM so spreadsheet tools detect the encoding. Exporter builds on it
// to write sessions in the column schema the loader recognizes, and the
// JSON summary of a single simulation.
//
// Example usage:
//
//	exp := exporter.New(paths.ReportsDir, logger)
//	res, _ := simulator.Simulate(simulator.Inputs{Carbs: 50, Walk: 20, Sleep: 7}, time.Now())
//	csvPath, err := exp.ExportCSV("", res)
//	jsonPath, err := exp.ExportJSON("", res)
package exporter

// Package charts renders the trend and factors images embedded in a report.
//
// Both charts are drawn with go-chart and returned as in-memory PNG payloads.
// When the chart backend fails, or the input holds non-finite values, the
// renderer switches to a placeholder bar chart painted straight onto an RGBA
// canvas, so a report can always be composed.
package charts

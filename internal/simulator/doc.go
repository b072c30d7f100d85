// Package simulator estimates the glucose outcome of a single management
// session from its carbohydrate intake, walking time and hours of sleep.
//
// The model is deliberately simple and educational:
//
//	glucose = 90 + 1.2*carbs - min(0.8*walk, 30) + sleepAdjustment
//
// clamped to [70, 200] mg/dL. Results can be exported through the exporter
// package in the same CSV schema the loader reads back.
package simulator

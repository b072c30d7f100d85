// Command glucoreport builds glucose session reports from CSV and Excel
// exports, simulates single sessions and serves both over HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

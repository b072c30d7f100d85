// Package shared holds helpers used by more than one package. Its testutil
// subpackage provides a buffered slog handler and CSV fixture writers for
// tests.
package shared

// Package shared provides common utilities and test helpers used across the
// b3data codebase.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - A buffered slog handler that captures log records, including the user
//     notices emitted by the loader, stacker and engine
//   - CSV fixtures for scalars, wide, stacked and results-style tables
//   - File assertions for exporter output
//
// Example usage:
//
//	func TestLoad(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    path := testutil.WriteFile(t, "scalars.csv", testutil.ScalarsRequiredCSV)
//	    ...
//	    testutil.AssertNotice(t, handler, slog.LevelInfo, "optional column")
//	}
//
// This package should only contain test helpers and generic utilities with no
// domain logic.
package shared

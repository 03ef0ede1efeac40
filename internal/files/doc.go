// Package files finds the table files a command can read.
//
// Discovery lists .csv, .xlsx and .xlsm files in a directory, resolving
// relative directories against a base path (usually the configured data
// directory):
//
//	discovery := files.NewDiscovery(paths.DataDir)
//	tables, err := discovery.FindTables(".")
package files

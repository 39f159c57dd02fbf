// Package constants defines shared constant values.
package constants

// AppName is the project identifier used in logs and metadata.
const AppName = "langsync"

// CommandName is the primary CLI command name.
const CommandName = "langsync"

// DefaultConfigFile is the project configuration looked up when --config is not given.
const DefaultConfigFile = "langsync.json"

// PerfExportFilename is the file written by --perf inside the perf output directory.
const PerfExportFilename = "langsync-perf.json"

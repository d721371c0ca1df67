package flags

// Package flags defines canonical CLI flag names shared across the CLI and config.
// Keeping these as constants avoids drift between Cobra flag wiring and code paths
// that check whether a flag was set explicitly (e.g. config-file precedence).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Planner.Model, flags.FlagModel, "", "...")
//	arg := "--" + flags.FlagModel
const (
	// Target
	FlagExclude        = "exclude"
	FlagKeyFile        = "key-file"
	FlagGitHubMetadata = "github-metadata"
	FlagDryRun         = "dry-run"

	// Planner
	FlagModel = "model"

	// Output
	FlagOutput              = "output"
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagEmit                = "emit"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagConfig      = "config"
	FlagConcurrency = "concurrency"
	FlagTimeout     = "timeout"
	FlagVerbose     = "verbose"
)

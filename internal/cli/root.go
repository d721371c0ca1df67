package cli

import (
	"fmt"
	"os"

	"roadmapper/internal/flags"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "roadmapper",
	Short: "Scan a repository and ask an LLM for a phased engineering roadmap",
	Long: `roadmapper scans a local repository, summarizes its file structure and key
configuration files, and asks an LLM (Gemini) for a phased engineering roadmap.
The reply is written verbatim to ROADMAP.md at the repository root.

Examples:
	# Show available commands and global flags
	roadmapper --help

	# Plan the current directory
	roadmapper plan

	# Print the repository context the model would see
	roadmapper context ../WebScraper

	# Print build info
	roadmapper version

Environment:
	A .env file in the working directory is loaded before any command runs.
	Variables already set in the environment take precedence over .env.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable verbose logging (prints every Gemini and GitHub API call)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
}

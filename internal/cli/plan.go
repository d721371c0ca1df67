package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"roadmapper/internal/config"
	"roadmapper/internal/engine"
	"roadmapper/internal/fetcher"
	"roadmapper/internal/flags"
	"roadmapper/internal/gemini"
	gh "roadmapper/internal/github"
	"roadmapper/internal/planner"

	"github.com/spf13/cobra"
)

var cfg = config.New()

var planCmd = &cobra.Command{
	Use:   "plan [TARGET...]",
	Short: "Generate ROADMAP.md for one or more repositories",
	Long: `Scan each TARGET directory, send its repository context to the model, and
write the reply verbatim to TARGET/ROADMAP.md (overwriting any existing file).

If no TARGET is given, TARGET_REPO is used, then the current directory.

Authentication:
  The Gemini API key is read from GEMINI_API_KEY (fallback GOOGLE_API_KEY),
  either from the environment or from a .env file in the working directory.
  --github-metadata additionally reads repository metadata from the GitHub API
  using GITHUB_TOKEN, GH_TOKEN, or the gh CLI login when available.

Configuration:
  Flags may also be set in a YAML file (--config, default .roadmapper.yaml in
  the working directory when present). Flags given on the command line win.

Output:
	Console output is controlled by --console-format (default: text).
	--emit writes an additional structured stream to stdout (json or ndjson);
	--no-console suppresses the console sink and progress lines.

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, target.started, context.extracted, target.result,
	target.finished, run.finished) and share a "run_id".

Exit codes:
	0 = every target written (or printed, with --dry-run)
	1 = every target failed
	2 = partial failure (some targets failed)
	3 = fatal error (invalid flags, missing API key; nothing ran)

Examples:
  # Plan the current directory
  export GEMINI_API_KEY="<your_key>"
  roadmapper plan

  # Plan several worktrees, two at a time, with GitHub metadata
  roadmapper plan ../app ../app-wt1 --concurrency 2 --github-metadata

  # Inspect the context without calling the model
  roadmapper plan --dry-run

  # AI Agent: stream machine-readable events to stdout
  roadmapper plan --no-console --emit ndjson
`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg.Target.Paths = args
		if err := prepareConfig(cmd, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			stop()
			os.Exit(3)
		}
		code := eng.Run(ctx, cfg)
		stop()
		os.Exit(code)
	},
}

// prepareConfig layers the config file, then the environment, under the
// flags already parsed into c, and validates the result.
func prepareConfig(cmd *cobra.Command, c *config.Config) error {
	if err := loadConfigFile(cmd, c); err != nil {
		return err
	}
	c.ApplyEnv(os.Getenv)
	return c.Validate()
}

func loadConfigFile(cmd *cobra.Command, c *config.Config) error {
	path := c.Runtime.ConfigFile
	if path == "" {
		path = config.DefaultConfigFile
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
	}

	fc, err := config.LoadFile(path)
	if err != nil {
		return err
	}

	changed := func(string) bool { return false }
	if cmd != nil {
		changed = cmd.Flags().Changed
	}
	return c.Apply(fc, changed)
}

func newEngine(ctx context.Context, c *config.Config) (*engine.Engine, error) {
	var p *planner.Requester
	if !c.Target.DryRun {
		if strings.TrimSpace(c.Planner.APIKey) == "" {
			return nil, errors.New("Gemini API key is required (set GEMINI_API_KEY or GOOGLE_API_KEY, or add it to .env)")
		}
		client, err := gemini.NewClient(ctx, c.Planner.APIKey, c.Planner.Model, gemini.WithVerbose(c.Runtime.Verbose, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		p, err = planner.NewRequester(client)
		if err != nil {
			return nil, err
		}
	}

	f, err := newFetcher(ctx, c)
	if err != nil {
		return nil, err
	}
	return engine.NewEngine(p, f), nil
}

// newFetcher returns nil unless --github-metadata is set. A missing token is
// not fatal: public repositories can be read anonymously.
func newFetcher(ctx context.Context, c *config.Config) (*fetcher.Fetcher, error) {
	if !c.Target.GitHubMetadata {
		return nil, nil
	}

	token, source, err := gh.ResolveAuthToken(ctx, "")
	if err != nil && !c.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Warning: failed to resolve GitHub auth token: %v\n", err)
	}
	if c.Runtime.Verbose && token != "" {
		fmt.Fprintf(os.Stderr, "[verbose] github token source: %s\n", source)
	}

	client, err := gh.NewClient(ctx, token, gh.WithVerbose(c.Runtime.Verbose, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return fetcher.NewFetcher(client), nil
}

// addTargetFlags registers the flags shared by every command that scans a target.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&cfg.Target.Exclude, flags.FlagExclude, nil, "Additional directory name(s) to skip (repeatable; comma-separated accepted)")
	cmd.Flags().StringArrayVar(&cfg.Target.KeyFiles, flags.FlagKeyFile, nil, "Additional key-file glob pattern(s), relative to the target (repeatable; commas outside [...] separate patterns)")
	cmd.Flags().BoolVar(&cfg.Target.GitHubMetadata, flags.FlagGitHubMetadata, false, "Append GitHub repository metadata when the origin remote is on github.com")
	cmd.Flags().StringVar(&cfg.Runtime.ConfigFile, flags.FlagConfig, "", "YAML config file (default: "+config.DefaultConfigFile+" if present)")
}

func init() {
	rootCmd.AddCommand(planCmd)

	// MAINTAINER NOTE: If you add/change/remove any flags here, keep
	// config.FileConfig and config.Apply in sync.

	// Target
	addTargetFlags(planCmd)
	planCmd.Flags().BoolVar(&cfg.Target.DryRun, flags.FlagDryRun, false, "Print the repository context instead of calling the model (no API key needed)")

	// Planner
	planCmd.Flags().StringVar(&cfg.Planner.Model, flags.FlagModel, config.DefaultModel, "Gemini model identifier")

	// Output
	planCmd.Flags().StringVar(&cfg.Output.Filename, flags.FlagOutput, config.DefaultOutputFilename, "Roadmap file name written at each target root")
	planCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	planCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (OK, ERROR, DRY-RUN). Comma-separated.")
	planCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	planCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit)")

	// Runtime
	planCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, 1, "Targets planned at once (default: 1)")
	planCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout (default: 30m)")
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"roadmapper/internal/engine"

	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context [TARGET]",
	Short: "Print the repository context the model would receive",
	Long: `Scan TARGET (default: TARGET_REPO, then the current directory) and print its
repository context to stdout. Nothing is sent to the model and nothing is written.

The context lists every file outside the excluded directories (.git,
__pycache__, node_modules, venv, .mypy_cache, plus --exclude), followed by the
contents of key configuration files (pyproject.toml, package.json,
requirements.txt, .github/workflows/*.yml, README.md, Dockerfile, plus --key-file).

Exit codes:
	0 = context printed
	1 = target missing or not a directory
	3 = fatal error (invalid flags or config)

Examples:
  roadmapper context
  roadmapper context ../WebScraper --exclude dist --key-file go.mod
`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg.Target.Paths = args
		if err := prepareConfig(cmd, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		os.Exit(printContext(ctx, cmd))
	},
}

func printContext(ctx context.Context, cmd *cobra.Command) int {
	f, err := newFetcher(ctx, cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 3
	}
	targets, err := engine.ResolveTargets(cfg.Target.Paths[:1])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 3
	}

	eng := engine.NewEngine(nil, f)
	eng.Stderr = cmd.ErrOrStderr()
	res, err := eng.BuildContext(ctx, cfg, targets[0])
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	fmt.Fprint(cmd.OutOrStdout(), res.Text)
	return 0
}

func init() {
	rootCmd.AddCommand(contextCmd)
	addTargetFlags(contextCmd)
}

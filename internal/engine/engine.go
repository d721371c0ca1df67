package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"roadmapper/internal/config"
	"roadmapper/internal/fetcher"
	gh "roadmapper/internal/github"
	"roadmapper/internal/output"
	"roadmapper/internal/planner"
	"roadmapper/internal/repocontext"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func exitCodeForRun(fatal bool, failed, total int) int {
	// Exit code contract:
	// 0 = every target succeeded
	// 1 = every target failed
	// 2 = partial failure (some targets failed)
	// 3 = fatal error (run did not start)
	if fatal {
		return 3
	}
	if failed == 0 {
		return 0
	}
	if failed >= total {
		return 1
	}
	return 2
}

// Target is one repository to plan for. Arg is the path as the user gave it
// (used in the context header); Abs is where the roadmap is written.
type Target struct {
	Arg string
	Abs string
}

// ResolveTargets makes each path absolute and drops later entries that resolve
// to an already-seen directory, so two targets never write the same file.
func ResolveTargets(paths []string) ([]Target, error) {
	seen := make(map[string]struct{}, len(paths))
	var out []Target
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve target %q: %w", p, err)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, Target{Arg: p, Abs: abs})
	}
	return out, nil
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat, cfg.Output.ConsoleFilterStatus)); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

type Engine struct {
	// Planner is required unless the run is a dry run.
	Planner *planner.Requester

	// Fetcher enables GitHub metadata enrichment; nil disables it.
	Fetcher *fetcher.Fetcher

	// Stdout receives sink output and dry-run contexts; Stderr receives progress
	// lines and warnings. Both default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	// originRepo is a test seam; nil uses gh.OriginRepo.
	originRepo func(ctx context.Context, dir string) (gh.Ref, bool)
}

// lockedWriter lets sinks and dry-run output from concurrent targets share
// stdout without interleaving within a write.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func NewEngine(p *planner.Requester, f *fetcher.Fetcher) *Engine {
	return &Engine{
		Planner: p,
		Fetcher: f,
	}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

func (e *Engine) progressf(cfg *config.Config, format string, args ...any) {
	if cfg.Output.NoConsole {
		return
	}
	fmt.Fprintf(e.stderr(), format+"\n", args...)
}

// BuildContext extracts the Repository Context for target and, when enabled
// and available, appends its GitHub metadata. Enrichment never fails the
// target; problems are reported as warnings.
func (e *Engine) BuildContext(ctx context.Context, cfg *config.Config, target Target) (repocontext.Result, error) {
	opts := repocontext.DefaultOptions().Merge(cfg.Target.Exclude, cfg.Target.KeyFiles)
	res, err := repocontext.Extract(target.Arg, opts)
	if err != nil {
		return repocontext.Result{}, err
	}

	if !cfg.Target.GitHubMetadata || e.Fetcher == nil {
		return res, nil
	}

	origin := e.originRepo
	if origin == nil {
		origin = gh.OriginRepo
	}
	ref, ok := origin(ctx, target.Abs)
	if !ok {
		e.progressf(cfg, "Warning: %s has no github.com origin remote; skipping metadata.", target.Arg)
		return res, nil
	}
	md, err := e.Fetcher.RepoMetadata(ctx, ref)
	if err != nil {
		e.progressf(cfg, "Warning: fetching metadata for %s: %v", ref, err)
		return res, nil
	}
	res.Text += md.Section()
	return res, nil
}

func (e *Engine) runTarget(ctx context.Context, cfg *config.Config, target Target, outMgr *output.Manager, stdout io.Writer) output.TargetResult {
	_ = outMgr.Write(output.Event{Type: output.EventTargetStarted, Target: target.Arg})

	fail := func(err error) output.TargetResult {
		return output.TargetResult{Target: target.Arg, Status: output.StatusError, Message: err.Error()}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	e.progressf(cfg, "Scanning %s...", target.Arg)
	res, err := e.BuildContext(ctx, cfg, target)
	if err != nil {
		return fail(err)
	}
	_ = outMgr.Write(output.Event{
		Type:     output.EventContextExtracted,
		Target:   target.Arg,
		Files:    res.Files,
		KeyFiles: res.KeyFiles,
		Skipped:  res.SkippedKeyFiles,
	})

	if cfg.Target.DryRun {
		if _, err := io.WriteString(stdout, res.Text); err != nil {
			return fail(fmt.Errorf("print context: %w", err))
		}
		return output.TargetResult{Target: target.Arg, Status: output.StatusDryRun, Bytes: len(res.Text)}
	}

	e.progressf(cfg, "Requesting roadmap for %s...", target.Arg)
	text, err := e.Planner.Generate(ctx, res.Text)
	if err != nil {
		return fail(err)
	}

	path := filepath.Join(target.Abs, cfg.Output.Filename)
	n, err := output.WriteRoadmap(path, text)
	if err != nil {
		return fail(err)
	}
	return output.TargetResult{Target: target.Arg, Status: output.StatusOK, Path: path, Bytes: n}
}

func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	if cfg == nil {
		fmt.Fprintln(e.stderr(), "Error: nil config")
		return exitCodeForRun(true, 0, 0)
	}
	if !cfg.Target.DryRun && e.Planner == nil {
		fmt.Fprintln(e.stderr(), "Error: no planner configured")
		return exitCodeForRun(true, 0, 0)
	}

	targets, err := ResolveTargets(cfg.Target.Paths)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error resolving targets: %v\n", err)
		return exitCodeForRun(true, 0, 0)
	}
	if len(targets) == 0 {
		fmt.Fprintln(e.stderr(), "Error: no targets")
		return exitCodeForRun(true, 0, 0)
	}

	stdout := &lockedWriter{w: e.stdout()}
	outMgr, err := setupOutputManager(cfg, stdout)
	if err != nil {
		fmt.Fprintf(e.stderr(), "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, 0, 0)
	}
	defer outMgr.Close()
	outMgr.SetRunID(uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	e.progressf(cfg, "Planning %d target(s).", len(targets))
	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, Targets: len(targets)})

	var (
		mu     sync.Mutex
		failed int
	)
	limit := cfg.Runtime.Concurrency
	if limit < 1 {
		limit = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, t := range targets {
		g.Go(func() error {
			r := e.runTarget(ctx, cfg, t, outMgr, stdout)
			if r.Status == output.StatusError {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			_ = outMgr.Write(r)
			_ = outMgr.Write(output.Event{Type: output.EventTargetFinished, Target: t.Arg})
			return nil
		})
	}
	// Targets report failures as results; the group never returns an error.
	_ = g.Wait()

	code := exitCodeForRun(false, failed, len(targets))
	_ = outMgr.Write(output.Event{Type: output.EventRunFinished, ExitCode: code})
	return code
}

package config

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultOutputFilename = "ROADMAP.md"

	// DefaultConfigFile is read from the working directory when --config is not set.
	DefaultConfigFile = ".roadmapper.yaml"
)

// Result statuses accepted by --console-filter-status.
const (
	StatusOK     = "OK"
	StatusError  = "ERROR"
	StatusDryRun = "DRY-RUN"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli/plan.go
	// - File in file.go (FileConfig + Apply)
	Target  Target
	Planner Planner
	Output  Output
	Runtime Runtime
}

type Target struct {
	// Paths are the repositories to plan for (positional args).
	// Empty falls back to TARGET_REPO, then ".".
	Paths []string

	// Exclude adds directory names to prune during the walk (see --exclude).
	// Values may be provided as repeated flags and/or comma-separated lists.
	Exclude []string

	// KeyFiles adds glob patterns for key configuration files (see --key-file).
	// Patterns are relative to the target root and use '/' separators.
	KeyFiles []string

	// GitHubMetadata appends repository metadata from the GitHub API when the
	// target's origin remote is on github.com (see --github-metadata).
	GitHubMetadata bool

	// DryRun prints the Repository Context instead of calling the model (see --dry-run).
	DryRun bool
}

type Planner struct {
	// Model is the completion model identifier (see --model).
	Model string

	// APIKey is resolved from the environment; it has no flag so it never
	// shows up in shell history.
	APIKey string
}

type Output struct {
	// Filename is written at each target root (see --output). Base name only.
	Filename string

	// ConsoleFormat controls the console sink format (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// ConsoleFilterStatus filters console target results by status (see --console-filter-status).
	// Allowed values: OK, ERROR, DRY-RUN.
	ConsoleFilterStatus []string

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink and progress lines (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// ConfigFile is an optional YAML file (see --config).
	ConfigFile string

	// Concurrency bounds how many targets are planned at once (see --concurrency).
	// Must be >= 1.
	Concurrency int

	// Timeout bounds the whole run (see --timeout). Must be > 0.
	Timeout time.Duration

	// Verbose logs every outbound HTTP request to stderr.
	Verbose bool
}

func New() *Config {
	return &Config{
		Planner: Planner{
			Model: DefaultModel,
		},
		Output: Output{
			Filename:      DefaultOutputFilename,
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency: 1,
			Timeout:     30 * time.Minute,
		},
	}
}

// ApplyEnv fills values that come from the environment. getenv is usually
// os.Getenv; it is a parameter so tests can inject values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		return
	}
	if len(c.Target.Paths) == 0 {
		if v := strings.TrimSpace(getenv("TARGET_REPO")); v != "" {
			c.Target.Paths = []string{v}
		}
	}
	if c.Planner.APIKey == "" {
		for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
			if v := strings.TrimSpace(getenv(name)); v != "" {
				c.Planner.APIKey = v
				break
			}
		}
	}
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Target.Exclude = splitCommaList(c.Target.Exclude)
	c.Target.KeyFiles = splitPatternList(c.Target.KeyFiles)
	c.Output.Emit = splitCommaList(c.Output.Emit)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)

	// Target validation
	var paths []string
	for _, p := range c.Target.Paths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	c.Target.Paths = paths

	for _, name := range c.Target.Exclude {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("invalid --exclude value %q: must be a directory name, not a path", name)
		}
	}
	for _, pattern := range c.Target.KeyFiles {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid --key-file pattern %q: %w", pattern, err)
		}
		if strings.HasPrefix(pattern, "/") || filepath.IsAbs(pattern) {
			return fmt.Errorf("invalid --key-file pattern %q: must be relative to the target", pattern)
		}
	}

	// Planner validation
	c.Planner.Model = strings.TrimSpace(c.Planner.Model)
	if c.Planner.Model == "" {
		return errors.New("--model must not be empty")
	}

	// Output validation
	c.Output.Filename = strings.TrimSpace(c.Output.Filename)
	if c.Output.Filename == "" {
		return errors.New("--output must not be empty")
	}
	if c.Output.Filename == "." || c.Output.Filename == ".." || strings.ContainsAny(c.Output.Filename, `/\`) {
		return fmt.Errorf("invalid --output %q: must be a file name written at the target root", c.Output.Filename)
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		return errors.New("--console-format must be one of: text, json, ndjson")
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --console-format: %s (must be one of: text, json, ndjson)", c.Output.ConsoleFormat)
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}

	for i, st := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(st))
		if v != StatusOK && v != StatusError && v != StatusDryRun {
			return fmt.Errorf("unsupported --console-filter-status value: %s (must be one of: OK, ERROR, DRY-RUN)", st)
		}
		c.Output.ConsoleFilterStatus[i] = v
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// splitPatternList is splitCommaList for glob patterns: a comma inside a
// character class ("[a,b].yml") or escaped with a backslash does not split.
func splitPatternList(values []string) []string {
	var out []string
	add := func(part string) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	for _, v := range values {
		start, inClass := 0, false
		for i := 0; i < len(v); i++ {
			switch v[i] {
			case '\\':
				i++
			case '[':
				inClass = true
			case ']':
				inClass = false
			case ',':
				if !inClass {
					add(v[start:i])
					start = i + 1
				}
			}
		}
		add(v[start:])
	}
	return out
}

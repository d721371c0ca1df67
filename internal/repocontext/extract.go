// Package repocontext assembles the Repository Context: a plain-text manifest of
// a repository's files followed by the verbatim contents of its key
// configuration files. The output is the only input the planner sees.
package repocontext

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode/utf8"
)

var (
	ErrTargetNotFound     = errors.New("target not found")
	ErrTargetNotDirectory = errors.New("target is not a directory")
)

// DefaultExcludedDirs are directory names that are never descended into,
// at any depth below the root.
var DefaultExcludedDirs = []string{
	".git",
	"__pycache__",
	"node_modules",
	"venv",
	".mypy_cache",
}

// DefaultKeyFilePatterns are expanded, in order, relative to the root.
var DefaultKeyFilePatterns = []string{
	"pyproject.toml",
	"package.json",
	"requirements.txt",
	".github/workflows/*.yml",
	"README.md",
	"Dockerfile",
}

const (
	headerPrefix      = "## REPOSITORY SCAN: "
	structureHeading  = "### FILE STRUCTURE:\n"
	keyFilesHeading   = "\n### KEY CONFIGURATION FILES:\n"
	keyFileLabelStart = "\n#### FILE: "
	fence             = "```"
)

type Options struct {
	// ExcludedDirs are pruned by base name before descent.
	ExcludedDirs []string

	// KeyFilePatterns are fs.Glob patterns relative to the root, slash-separated.
	KeyFilePatterns []string
}

func DefaultOptions() Options {
	return Options{
		ExcludedDirs:    append([]string(nil), DefaultExcludedDirs...),
		KeyFilePatterns: append([]string(nil), DefaultKeyFilePatterns...),
	}
}

// Merge returns a copy of o with extra exclusions and patterns appended.
// Duplicates are dropped; the first occurrence keeps its position.
func (o Options) Merge(extraExcludes, extraPatterns []string) Options {
	return Options{
		ExcludedDirs:    appendUnique(o.ExcludedDirs, extraExcludes),
		KeyFilePatterns: appendUnique(o.KeyFilePatterns, extraPatterns),
	}
}

// Result is the assembled Repository Context plus counters used for reporting.
type Result struct {
	Text string

	Files           int
	KeyFiles        int
	SkippedKeyFiles int
}

// Extract walks root and builds its Repository Context.
//
// Per-file failures (unreadable key files, invalid UTF-8, unreadable
// subdirectories) are skipped. Only a missing or non-directory root is an error.
func Extract(root string, opts Options) (Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrTargetNotFound, root)
		}
		return Result{}, fmt.Errorf("stat target %s: %w", root, err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s", ErrTargetNotDirectory, root)
	}

	var b strings.Builder
	var res Result

	b.WriteString(headerPrefix)
	b.WriteString(root)
	b.WriteString("\n\n")

	fsys := os.DirFS(root)

	b.WriteString(structureHeading)
	paths, err := ListFS(fsys, opts.ExcludedDirs)
	if err != nil {
		return Result{}, fmt.Errorf("walk %s: %w", root, err)
	}
	for _, p := range paths {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	res.Files = len(paths)

	b.WriteString(keyFilesHeading)
	for _, pattern := range opts.KeyFilePatterns {
		// Globbing inside fsys keeps metacharacters in root ("repo[1]") literal.
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			// fs.ErrBadPattern matches nothing.
			continue
		}
		for _, m := range matches {
			content, ok := ReadTextFile(fsys, m)
			if !ok {
				res.SkippedKeyFiles++
				continue
			}
			writeFencedFile(&b, path.Base(m), content)
			res.KeyFiles++
		}
	}

	res.Text = b.String()
	return res, nil
}

// ListFiles returns every non-directory entry below root as a slash-separated
// path relative to root, in traversal order. Directories whose base name is in
// excluded are skipped before they are read.
func ListFiles(root string, excluded []string) ([]string, error) {
	out, err := ListFS(os.DirFS(root), excluded)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

// ListFS is ListFiles over an fs.FS rooted at the target. Excluded directories
// are never passed to ReadDir. Symlinks to directories are neither listed nor
// followed.
func ListFS(fsys fs.FS, excluded []string) ([]string, error) {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	var out []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			// Unreadable entry below the root: ignore it and keep walking.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p == "." {
				return nil
			}
			if _, ok := skip[d.Name()]; ok {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := fs.Stat(fsys, p); err == nil && info.IsDir() {
				return nil
			}
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadTextFile is a best-effort read of name within fsys. It reports false when
// the entry cannot be read as a regular file or its bytes are not valid UTF-8.
func ReadTextFile(fsys fs.FS, name string) (string, bool) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", false
	}
	if !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}

func writeFencedFile(b *strings.Builder, name, content string) {
	b.WriteString(keyFileLabelStart)
	b.WriteString(name)
	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString("\n")
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString("\n")
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

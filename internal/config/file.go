package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"roadmapper/internal/flags"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML config file shape, e.g.
//
//	model: gemini-2.0-flash
//	output: ROADMAP.md
//	exclude: [dist, .terraform]
//	key_files: [go.mod, Makefile]
//	github_metadata: true
//	concurrency: 2
//	timeout: 10m
//
// Scalars apply unless the matching flag was set on the command line; lists
// are appended to any flag values.
type FileConfig struct {
	Model          string   `yaml:"model"`
	Output         string   `yaml:"output"`
	Exclude        []string `yaml:"exclude"`
	KeyFiles       []string `yaml:"key_files"`
	GitHubMetadata *bool    `yaml:"github_metadata"`
	Concurrency    int      `yaml:"concurrency"`
	Timeout        string   `yaml:"timeout"`
}

// LoadFile parses a YAML config file. Unknown keys are rejected so typos
// surface instead of being ignored. An empty file yields a zero FileConfig.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	fc := &FileConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// Apply merges fc into c. changed reports whether a flag was set explicitly
// (typically cmd.Flags().Changed); a nil changed treats every flag as unset.
func (c *Config) Apply(fc *FileConfig, changed func(name string) bool) error {
	if fc == nil {
		return nil
	}
	if changed == nil {
		changed = func(string) bool { return false }
	}

	if fc.Model != "" && !changed(flags.FlagModel) {
		c.Planner.Model = fc.Model
	}
	if fc.Output != "" && !changed(flags.FlagOutput) {
		c.Output.Filename = fc.Output
	}
	if fc.GitHubMetadata != nil && !changed(flags.FlagGitHubMetadata) {
		c.Target.GitHubMetadata = *fc.GitHubMetadata
	}
	if fc.Concurrency != 0 && !changed(flags.FlagConcurrency) {
		c.Runtime.Concurrency = fc.Concurrency
	}
	if fc.Timeout != "" && !changed(flags.FlagTimeout) {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q in config: %w", fc.Timeout, err)
		}
		c.Runtime.Timeout = d
	}

	c.Target.Exclude = append(c.Target.Exclude, fc.Exclude...)
	c.Target.KeyFiles = append(c.Target.KeyFiles, fc.KeyFiles...)
	return nil
}

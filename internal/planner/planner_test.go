package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ReturnsTextVerbatim(t *testing.T) {
	var gotInstruction, gotContent string
	stub := CompleterFunc(func(_ context.Context, instruction, content string) (string, error) {
		gotInstruction, gotContent = instruction, content
		return "  # Roadmap\n\n## Phase 1\n  ", nil
	})

	r, err := NewRequester(stub)
	require.NoError(t, err)

	got, err := r.Generate(context.Background(), "## REPOSITORY SCAN: x\n")
	require.NoError(t, err)

	assert.Equal(t, "  # Roadmap\n\n## Phase 1\n  ", got)
	assert.Equal(t, SystemInstruction, gotInstruction)
	assert.Equal(t, ContextPreamble+"## REPOSITORY SCAN: x\n", gotContent)
}

func TestGenerate_EmptyTextIsNotAnError(t *testing.T) {
	stub := CompleterFunc(func(context.Context, string, string) (string, error) {
		return "", nil
	})
	r, err := NewRequester(stub)
	require.NoError(t, err)

	got, err := r.Generate(context.Background(), "ctx")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerate_PropagatesCompleterError(t *testing.T) {
	sentinel := errors.New("401 unauthorized")
	calls := 0
	stub := CompleterFunc(func(context.Context, string, string) (string, error) {
		calls++
		return "partial", sentinel
	})
	r, err := NewRequester(stub)
	require.NoError(t, err)

	got, err := r.Generate(context.Background(), "ctx")
	require.ErrorIs(t, err, sentinel)
	assert.Empty(t, got)
	assert.Equal(t, 1, calls, "no retries")
}

func TestSystemInstruction_MandatesWorktreePhase(t *testing.T) {
	assert.True(t, strings.Contains(SystemInstruction, "PHASES"))
	assert.Contains(t, SystemInstruction, `Phase 1 MUST be "Enable Parallel Agents"`)
	assert.Contains(t, SystemInstruction, "git worktrees")
}

func TestWithInstruction(t *testing.T) {
	var got string
	stub := CompleterFunc(func(_ context.Context, instruction, _ string) (string, error) {
		got = instruction
		return "", nil
	})

	r, err := NewRequester(stub, WithInstruction("custom"))
	require.NoError(t, err)
	_, err = r.Generate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "custom", got)

	r, err = NewRequester(stub, WithInstruction(""))
	require.NoError(t, err)
	_, err = r.Generate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, SystemInstruction, got)
}

func TestNewRequester_NilCompleter(t *testing.T) {
	_, err := NewRequester(nil)
	require.Error(t, err)
}

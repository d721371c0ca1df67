// Package planner turns a Repository Context into a roadmap document by asking a
// completion service. The service is reached only through the Completer
// interface so callers can substitute any backend (or a test double).
package planner

import (
	"context"
	"errors"
	"fmt"
)

// SystemInstruction frames the model's role and the required roadmap shape.
const SystemInstruction = `
You are a Staff Software Engineer and DevOps Architect. Divide into PHASES.
Phase 1 MUST be "Enable Parallel Agents" using git worktrees.
`

// ContextPreamble introduces the Repository Context in the user payload.
const ContextPreamble = "Here is the current repository context:\n"

// Completer sends a system instruction and user content to a completion
// service and returns its text. An empty string means the service produced
// no text; that is not an error.
type Completer interface {
	Complete(ctx context.Context, systemInstruction, content string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, systemInstruction, content string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, systemInstruction, content string) (string, error) {
	return f(ctx, systemInstruction, content)
}

type Requester struct {
	completer   Completer
	instruction string
}

type Option func(*Requester)

// WithInstruction replaces SystemInstruction. Empty values are ignored.
func WithInstruction(s string) Option {
	return func(r *Requester) {
		if s != "" {
			r.instruction = s
		}
	}
}

func NewRequester(c Completer, opts ...Option) (*Requester, error) {
	if c == nil {
		return nil, errors.New("planner: completer is nil")
	}
	r := &Requester{completer: c, instruction: SystemInstruction}
	for _, apply := range opts {
		if apply != nil {
			apply(r)
		}
	}
	return r, nil
}

// Generate returns the completion service's text for repoContext, unmodified.
// Service errors are returned wrapped, with no retry.
func (r *Requester) Generate(ctx context.Context, repoContext string) (string, error) {
	if ctx == nil {
		return "", errors.New("planner: ctx is nil")
	}
	text, err := r.completer.Complete(ctx, r.instruction, ContextPreamble+repoContext)
	if err != nil {
		return "", fmt.Errorf("generate plan: %w", err)
	}
	return text, nil
}

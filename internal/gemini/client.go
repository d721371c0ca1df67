// Package gemini implements planner.Completer on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"roadmapper/internal/httplog"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

var ErrMissingAPIKey = errors.New("gemini: API key is required (set GEMINI_API_KEY)")

type Client struct {
	genai *genai.Client
	model string
}

type options struct {
	verbose bool
	writer  io.Writer
	baseURL string
	base    http.RoundTripper
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = u
	}
}

// WithTransport sets the underlying transport (before verbose logging).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

func NewClient(ctx context.Context, apiKey, model string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("gemini client: ctx is nil")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := o.base
	if transport == nil {
		transport = http.DefaultTransport
	}
	if o.verbose {
		transport = httplog.New(transport, o.writer, "gemini api")
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: transport},
	}
	if o.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{genai: gc, model: model}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Complete sends one GenerateContent request. The returned text is the
// concatenation of the first candidate's text parts; no candidates yields "".
func (c *Client) Complete(ctx context.Context, systemInstruction, content string) (string, error) {
	if c == nil || c.genai == nil {
		return "", errors.New("gemini: client is nil")
	}

	var cfg *genai.GenerateContentConfig
	if systemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(content), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content (%s): %w", c.model, err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

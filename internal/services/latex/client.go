package latex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"pandora/internal/services"
)

const component = "latex"

// scratchBase is the name of the source file written into the scratch
// directory. The latex run derives its DVI name from it.
const (
	scratchTexFile = "block.tex"
	scratchDviFile = "block.dvi"
)

// scaffolding matches document-level commands an author may have pasted in.
// Snippets compile inside the shared preamble, so these lines are stripped
// rather than rejected.
var scaffolding = regexp.MustCompile(`\\documentclass[^\n]*|\\usepackage[^\n]*|\\begin\{document\}|\\end\{document\}`)

// Request describes one text block render.
type Request struct {
	Snippet    string
	OutputPath string
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client renders markup text blocks to SVG via latex and dvisvgm.
type Client struct {
	binary   string
	dvisvgm  string
	preamble string
	timeout  time.Duration
	exec     services.Executor
}

// New constructs a renderer client. The dvisvgm command should already be
// resolved by the caller; preamble may be empty to use the built-in one.
func New(binary, dvisvgm, preamble string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("latex binary required")
	}
	dvisvgm = strings.TrimSpace(dvisvgm)
	if dvisvgm == "" {
		return nil, errors.New("dvisvgm command required")
	}
	if strings.TrimSpace(preamble) == "" {
		preamble = DefaultPreamble
	}
	client := &Client{
		binary:   binary,
		dvisvgm:  dvisvgm,
		preamble: preamble,
		timeout:  time.Duration(timeoutSeconds) * time.Second,
		exec:     services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Preamble returns the preamble text every snippet compiles under. Cache
// keys include it so a preamble change invalidates rendered blocks.
func (c *Client) Preamble() string {
	return c.preamble
}

// Render compiles the snippet and writes the SVG to req.OutputPath. The
// file exists at exactly that path on success; no other output survives.
func (c *Client) Render(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrStructural, component, "render", "output path required", nil)
	}

	scratch, err := os.MkdirTemp("", "pandora-latex-")
	if err != nil {
		return services.Wrap(services.ErrStructural, component, "render", "create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	doc := c.composeDocument(req.Snippet)
	texPath := filepath.Join(scratch, scratchTexFile)
	if err := os.WriteFile(texPath, []byte(doc), 0o644); err != nil {
		return services.Wrap(services.ErrStructural, component, "render", "write source", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tail := newOutputTail()
	args := []string{"-interaction=nonstopmode", scratchTexFile}
	if err := c.exec.Run(runCtx, scratch, c.binary, args, tail.add); err != nil {
		return c.classify(ctx, runCtx, "compile dvi", err, tail)
	}
	if _, err := os.Stat(filepath.Join(scratch, scratchDviFile)); err != nil {
		return services.Wrap(services.ErrRenderFailure, component, "compile dvi", tail.detail("no dvi produced"), nil)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return services.Wrap(services.ErrStructural, component, "render", "create output directory", err)
	}
	tail = newOutputTail()
	args = []string{scratchDviFile, "-n", "-a", "-o", req.OutputPath}
	if err := c.exec.Run(runCtx, scratch, c.dvisvgm, args, tail.add); err != nil {
		return c.classify(ctx, runCtx, "convert svg", err, tail)
	}
	if _, err := os.Stat(req.OutputPath); err != nil {
		return services.Wrap(services.ErrRenderFailure, component, "convert svg", tail.detail("no svg produced"), nil)
	}
	return nil
}

// composeDocument wraps the snippet in the shared preamble. Scaffolding the
// author carried over from a standalone document is stripped first.
func (c *Client) composeDocument(snippet string) string {
	cleaned := scaffolding.ReplaceAllString(snippet, "")
	cleaned = strings.TrimSpace(cleaned)

	var b strings.Builder
	b.WriteString(strings.TrimRight(c.preamble, "\n"))
	b.WriteString("\n\\begin{document}\n")
	b.WriteString(cleaned)
	b.WriteString("\n\\end{document}\n")
	return b.String()
}

func (c *Client) classify(ctx, runCtx context.Context, operation string, err error, tail *outputTail) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, component, operation, fmt.Sprintf("exceeded %s", c.timeout), nil)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return services.Wrap(services.ErrToolMissing, component, operation, "", err)
	default:
		return services.Wrap(services.ErrRenderFailure, component, operation, tail.detail(""), err)
	}
}

// outputTail keeps the last few subprocess lines for error context.
type outputTail struct {
	lines []string
}

const tailLimit = 8

func newOutputTail() *outputTail {
	return &outputTail{}
}

func (t *outputTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > tailLimit {
		t.lines = t.lines[len(t.lines)-tailLimit:]
	}
}

func (t *outputTail) detail(prefix string) string {
	if len(t.lines) == 0 {
		return prefix
	}
	joined := strings.Join(t.lines, " | ")
	if prefix == "" {
		return joined
	}
	return prefix + ": " + joined
}

package manim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"pandora/internal/fileutil"
	"pandora/internal/services"
)

const component = "manim"

// quality maps the configured quality names onto manim's CLI flag and the
// resolution directory it writes under media/videos/<module>/.
type quality struct {
	flag string
	dir  string
}

var qualities = map[string]quality{
	"low":    {flag: "-ql", dir: "480p15"},
	"medium": {flag: "-qm", dir: "720p30"},
	"high":   {flag: "-qh", dir: "1080p60"},
	"fourk":  {flag: "-qk", dir: "2160p60"},
}

// Request describes one animation block render.
type Request struct {
	// Script is the construct body. The client supplies the scene class
	// and imports, so authors write only animation statements.
	Script string
	// SequenceIndex names the generated scene class and output file.
	SequenceIndex int
	// Quality overrides the client default when set.
	Quality    string
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

// Client renders animation blocks to MP4 via the manim CLI.
type Client struct {
	binary  string
	quality string
	timeout time.Duration
	exec    services.Executor
}

// New constructs a manim client. defaultQuality must be one of the
// configured quality names.
func New(binary, defaultQuality string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("manim binary required")
	}
	defaultQuality = strings.ToLower(strings.TrimSpace(defaultQuality))
	if _, ok := qualities[defaultQuality]; !ok {
		return nil, fmt.Errorf("unknown manim quality %q", defaultQuality)
	}
	client := &Client{
		binary:  binary,
		quality: defaultQuality,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DefaultQuality returns the quality used when a request has no override.
// Cache keys include it so a configuration change invalidates cleanly.
func (c *Client) DefaultQuality() string {
	return c.quality
}

// Render runs the scene and moves the video to req.OutputPath. Each render
// gets an isolated scratch directory and a fixed --media_dir, so the output
// location is computed, never discovered by scanning.
func (c *Client) Render(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrStructural, component, "render", "output path required", nil)
	}
	if req.SequenceIndex < 0 {
		return services.Wrap(services.ErrStructural, component, "render", "negative sequence index", nil)
	}

	scratch, err := os.MkdirTemp("", "pandora-manim-")
	if err != nil {
		return services.Wrap(services.ErrStructural, component, "render", "create scratch directory", err)
	}
	defer os.RemoveAll(scratch)

	module := fmt.Sprintf("scene_%d", req.SequenceIndex)
	class := fmt.Sprintf("PandoraScene_%d", req.SequenceIndex)
	outputName := module + ".mp4"
	scriptName := module + ".py"

	if err := os.WriteFile(filepath.Join(scratch, scriptName), []byte(sceneSource(req.Script, class)), 0o644); err != nil {
		return services.Wrap(services.ErrStructural, component, "render", "write scene script", err)
	}

	q := c.resolveQuality(req.Quality)
	args := []string{
		"render", scriptName, class,
		q.flag, "--disable_caching",
		"--media_dir", "media",
		"-o", outputName,
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tail := newOutputTail()
	if err := c.exec.Run(runCtx, scratch, c.binary, args, tail.add); err != nil {
		return c.classify(ctx, runCtx, err, tail)
	}

	produced := filepath.Join(scratch, "media", "videos", module, q.dir, outputName)
	if _, err := os.Stat(produced); err != nil {
		return services.Wrap(services.ErrRenderFailure, component, "render", tail.detail("no video produced"), nil)
	}
	if err := fileutil.MoveFile(produced, req.OutputPath); err != nil {
		return services.Wrap(services.ErrStructural, component, "render", "move video into staging", err)
	}
	return nil
}

// resolveQuality applies the per-block override when it names a known
// quality; anything else falls back to the client default.
func (c *Client) resolveQuality(override string) quality {
	name := strings.ToLower(strings.TrimSpace(override))
	if q, ok := qualities[name]; ok {
		return q
	}
	return qualities[c.quality]
}

// sceneSource wraps the construct body in scene boilerplate. Authors never
// write class or import statements; relative indentation in the body is
// preserved under the fixed construct indent.
func sceneSource(script, class string) string {
	var b strings.Builder
	b.WriteString("from manim import *\n\n")
	b.WriteString("class " + class + "(Scene):\n")
	b.WriteString("    def construct(self):\n")
	b.WriteString("        self.camera.background_color = \"WHITE\"\n")
	for _, line := range strings.Split(strings.TrimSpace(script), "\n") {
		b.WriteString("        " + line + "\n")
	}
	return b.String()
}

func (c *Client) classify(ctx, runCtx context.Context, err error, tail *outputTail) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, component, "render", fmt.Sprintf("exceeded %s", c.timeout), nil)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return services.Wrap(services.ErrToolMissing, component, "render", "", err)
	default:
		return services.Wrap(services.ErrRenderFailure, component, "render", tail.detail(""), err)
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

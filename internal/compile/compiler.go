package compile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pandora/internal/archive"
	"pandora/internal/config"
	"pandora/internal/deps"
	"pandora/internal/document"
	"pandora/internal/layout"
	"pandora/internal/logging"
	"pandora/internal/markup"
	"pandora/internal/preflight"
	"pandora/internal/render"
	"pandora/internal/rendercache"
	"pandora/internal/services"
	"pandora/internal/services/latex"
	"pandora/internal/services/manim"
	"pandora/internal/staging"
)

const component = "compile"

// ArchiveExtension is the suffix of compiled archives.
const ArchiveExtension = ".pandora"

// staleStagingAge is how old an abandoned job directory must be before the
// opportunistic sweep removes it.
const staleStagingAge = 24 * time.Hour

// Options selects the input and output of one compile and the per-run
// overrides the CLI exposes.
type Options struct {
	InputPath  string
	OutputPath string
	// Workers overrides the configured pool size when positive.
	Workers int
	// NoCache bypasses the render cache for this run.
	NoCache bool
}

// Result summarizes a finished compile.
type Result struct {
	JobID       string
	ArchivePath string
	LayoutMode  document.LayoutMode
	BlockCount  int
	PageCount   int
	Warnings    []string
	CacheHits   int
	Elapsed     time.Duration
}

// Compiler runs document compiles against one configuration.
type Compiler struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a compiler. logger may be nil for silent operation.
func New(cfg *config.Config, logger *slog.Logger) *Compiler {
	return &Compiler{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, component),
	}
}

// Run executes one compile. The returned error is nil even when individual
// blocks failed to render; those land in Result.Warnings. Cancellation and
// structural failures return an error and leave no archive at the output
// path.
func (c *Compiler) Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	jobID := shortJobID()
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, c.logger)

	inputPath, err := filepath.Abs(strings.TrimSpace(opts.InputPath))
	if err != nil {
		return Result{}, services.Wrap(services.ErrStructural, component, "resolve input", opts.InputPath, err)
	}
	source, err := os.ReadFile(inputPath)
	if err != nil {
		return Result{}, services.Wrap(services.ErrMalformedInput, component, "read input", inputPath, err)
	}
	outputPath, err := resolveOutputPath(inputPath, opts.OutputPath)
	if err != nil {
		return Result{}, err
	}

	mode := layout.Infer(string(source))
	fragments := markup.Segment(string(source))
	blocks := layout.Build(fragments)
	logger.InfoContext(ctx, "document segmented",
		logging.String("input", inputPath),
		logging.Int("blocks", len(blocks)),
		logging.String("layout_mode", string(mode)))

	if err := c.preflight(blocks); err != nil {
		return Result{}, err
	}

	sweep := staging.CleanStale(c.cfg.Paths.StagingDir, staleStagingAge, logger)
	if len(sweep.Removed) > 0 {
		logger.InfoContext(ctx, "swept stale staging directories", logging.Int("removed", len(sweep.Removed)))
	}

	stagingDir := staging.JobDir(c.cfg.Paths.StagingDir, jobID)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrStructural, component, "create staging directory", stagingDir, err)
	}
	defer func() {
		if err := os.RemoveAll(stagingDir); err != nil {
			logger.WarnContext(ctx, "staging cleanup failed",
				logging.String("path", stagingDir),
				logging.Error(err))
		}
	}()

	dispatcher, cache, err := c.buildDispatcher(opts)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = cache.Close() }()

	jobs := render.Plan(blocks, filepath.Dir(inputPath))
	dispatched, err := dispatcher.Dispatch(services.WithStage(ctx, "render"), jobs, stagingDir)
	if err != nil {
		return Result{}, err
	}

	manifest := document.NewManifest(mode, dispatched.Blocks)
	if err := archive.Write(services.WithStage(ctx, "assemble"), outputPath, manifest, stagingDir); err != nil {
		return Result{}, err
	}

	result := Result{
		JobID:       jobID,
		ArchivePath: outputPath,
		LayoutMode:  mode,
		BlockCount:  len(manifest.Blocks),
		PageCount:   countPages(manifest.Blocks),
		Warnings:    dispatched.Warnings,
		CacheHits:   dispatched.CacheHits,
		Elapsed:     time.Since(start),
	}
	logger.InfoContext(ctx, "compile finished",
		logging.String("archive", result.ArchivePath),
		logging.Int("blocks", result.BlockCount),
		logging.Int("pages", result.PageCount),
		logging.Int("warnings", len(result.Warnings)),
		logging.Int("cache_hits", result.CacheHits),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// preflight fails fast when a tool or directory this document's compile
// depends on is unavailable. Tools the document never uses are tolerated.
func (c *Compiler) preflight(blocks []document.Block) error {
	needs := preflight.Needs{}
	for _, block := range blocks {
		switch {
		case block.Kind == document.KindText:
			needs.Latex = true
		case block.Kind.IsAnimation():
			needs.Manim = true
		}
	}
	failure, failed := preflight.FirstFailure(preflight.Compile(c.cfg, needs))
	if !failed {
		return nil
	}
	marker := services.ErrStructural
	switch failure.Name {
	case "latex", "dvisvgm", "manim":
		marker = services.ErrToolMissing
	}
	return services.Wrap(marker, component, "preflight", fmt.Sprintf("%s: %s", failure.Name, failure.Detail), nil)
}

func (c *Compiler) buildDispatcher(opts Options) (*render.Dispatcher, *rendercache.Manager, error) {
	preamble, err := c.resolvePreamble()
	if err != nil {
		return nil, nil, err
	}
	dvisvgm, _ := deps.ResolveDvisvgm(c.cfg.Latex.Binary, c.cfg.Latex.DvisvgmBinary)
	text, err := latex.New(c.cfg.Latex.Binary, dvisvgm, preamble, c.cfg.Latex.TimeoutSec)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrStructural, component, "configure latex renderer", "", err)
	}
	animation, err := manim.New(c.cfg.Manim.Binary, c.cfg.Manim.Quality, c.cfg.Manim.TimeoutSec)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrStructural, component, "configure manim renderer", "", err)
	}

	var cache *rendercache.Manager
	if !opts.NoCache {
		cache, err = rendercache.Open(c.cfg, c.logger)
		if err != nil {
			return nil, nil, services.Wrap(services.ErrStructural, component, "open render cache", "", err)
		}
	}

	workers := c.cfg.Render.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	return render.NewDispatcher(text, animation, cache, workers, c.logger), cache, nil
}

// resolvePreamble loads the configured preamble override or falls back to
// the built-in style.
func (c *Compiler) resolvePreamble() (string, error) {
	path := strings.TrimSpace(c.cfg.Latex.PreamblePath)
	if path == "" {
		return latex.DefaultPreamble, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", services.Wrap(services.ErrStructural, component, "read preamble", path, err)
	}
	return string(data), nil
}

func resolveOutputPath(inputPath, override string) (string, error) {
	out := strings.TrimSpace(override)
	if out == "" {
		base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		return base + ArchiveExtension, nil
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", services.Wrap(services.ErrStructural, component, "resolve output", out, err)
	}
	return abs, nil
}

func countPages(blocks []document.Block) int {
	if len(blocks) == 0 {
		return 0
	}
	pages := 1
	for _, block := range blocks[1:] {
		if block.PageBreakBefore {
			pages++
		}
	}
	return pages
}

// shortJobID trims a UUID to the leading group; enough uniqueness for log
// correlation and staging directory names without unwieldy paths.
func shortJobID() string {
	id := uuid.NewString()
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

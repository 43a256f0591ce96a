package render

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"pandora/internal/document"
	"pandora/internal/fileutil"
	"pandora/internal/logging"
	"pandora/internal/rendercache"
	"pandora/internal/services"
	"pandora/internal/services/latex"
	"pandora/internal/services/manim"
)

// TextRenderer renders text blocks to SVG.
type TextRenderer interface {
	Render(ctx context.Context, req latex.Request) error
	Preamble() string
}

// AnimationRenderer renders animation blocks to MP4.
type AnimationRenderer interface {
	Render(ctx context.Context, req manim.Request) error
	DefaultQuality() string
}

// Result carries the dispatch outcome. Blocks holds the final sequence with
// asset references filled in; failed renders carry the failure sentinel.
type Result struct {
	Blocks    []document.Block
	Warnings  []string
	CacheHits int
}

// Dispatcher fans block renders out to a bounded worker pool.
type Dispatcher struct {
	text      TextRenderer
	animation AnimationRenderer
	cache     *rendercache.Manager
	workers   int
	logger    *slog.Logger
}

// NewDispatcher builds a dispatcher. cache may be nil to disable caching;
// workers is clamped to at least one.
func NewDispatcher(text TextRenderer, animation AnimationRenderer, cache *rendercache.Manager, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		text:      text,
		animation: animation,
		cache:     cache,
		workers:   workers,
		logger:    logging.NewComponentLogger(logger, "dispatcher"),
	}
}

// Dispatch renders every job into stagingDir and returns the final block
// sequence. Renderer failures mark their own block and land in Warnings;
// only structural failures or cancellation abort the dispatch, and then no
// partial result is returned. Dispatch joins all workers before returning.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []Job, stagingDir string) (Result, error) {
	if len(jobs) == 0 {
		return Result{}, nil
	}

	blocks := make([]document.Block, len(jobs))
	warnings := make([]string, len(jobs))
	hits := make([]bool, len(jobs))

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := d.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	d.logger.InfoContext(ctx, "pool started",
		logging.Int("workers", workers),
		logging.Int("blocks", len(jobs)))

	indexes := make(chan int)
	go func() {
		defer close(indexes)
		for i := range jobs {
			select {
			case indexes <- i:
			case <-poolCtx.Done():
				return
			}
		}
	}()

	var (
		wg             sync.WaitGroup
		structuralOnce sync.Once
		structuralErr  error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				block, warning, hit, err := d.renderJob(poolCtx, jobs[i], stagingDir)
				if err != nil {
					if poolCtx.Err() == nil {
						structuralOnce.Do(func() {
							structuralErr = err
							cancel()
						})
					}
					return
				}
				blocks[i] = block
				warnings[i] = warning
				hits[i] = hit
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if structuralErr != nil {
		return Result{}, structuralErr
	}

	result := Result{Blocks: blocks}
	for i := range jobs {
		if warnings[i] != "" {
			result.Warnings = append(result.Warnings, warnings[i])
		}
		if hits[i] {
			result.CacheHits++
		}
	}
	return result, nil
}

// renderJob produces the staged asset for one block. The returned error is
// reserved for structural failures and cancellation; renderer failures are
// folded into the block via the failure sentinel.
func (d *Dispatcher) renderJob(ctx context.Context, job Job, stagingDir string) (document.Block, string, bool, error) {
	block := job.Block
	jobCtx := services.WithBlockIndex(ctx, block.SequenceIndex)
	dest := filepath.Join(stagingDir, filepath.FromSlash(block.AssetRef))

	switch block.Kind {
	case document.KindText:
		key := rendercache.Key("latex", block.RawPayload, block.Options, d.text.Preamble())
		if hit := d.lookupCache(jobCtx, key, dest); hit {
			return block, "", true, nil
		}
		err := d.text.Render(jobCtx, latex.Request{Snippet: block.RawPayload, OutputPath: dest})
		return d.finishRendered(jobCtx, block, key, rendercache.KindText, dest, err)

	case document.KindAnimationScene, document.KindAnimationInline:
		key := rendercache.Key("manim", block.RawPayload, block.Options, d.animation.DefaultQuality())
		if hit := d.lookupCache(jobCtx, key, dest); hit {
			return block, "", true, nil
		}
		err := d.animation.Render(jobCtx, manim.Request{
			Script:        block.RawPayload,
			SequenceIndex: block.SequenceIndex,
			Quality:       block.Options["quality"],
			OutputPath:    dest,
		})
		return d.finishRendered(jobCtx, block, key, rendercache.KindAnimation, dest, err)

	case document.KindImage, document.KindVideo:
		if err := fileutil.CopyFileVerified(job.SourcePath, dest); err != nil {
			if ctx.Err() != nil {
				return document.Block{}, "", false, ctx.Err()
			}
			return d.failBlock(jobCtx, block, fmt.Sprintf("copy %s", job.SourcePath), err)
		}
		return block, "", false, nil
	}
	return document.Block{}, "", false, services.Wrap(services.ErrStructural, "dispatcher", "render", fmt.Sprintf("unknown block kind %q", block.Kind), nil)
}

func (d *Dispatcher) finishRendered(ctx context.Context, block document.Block, key, cacheKind, dest string, err error) (document.Block, string, bool, error) {
	if err != nil {
		if ctx.Err() != nil {
			return document.Block{}, "", false, ctx.Err()
		}
		if services.IsBlockFailure(err) {
			return d.failBlock(ctx, block, "render", err)
		}
		return document.Block{}, "", false, err
	}
	if storeErr := d.cache.Store(ctx, key, cacheKind, dest); storeErr != nil {
		d.logger.WarnContext(ctx, "cache store failed",
			logging.Int("block_index", block.SequenceIndex),
			logging.Error(storeErr))
	}
	return block, "", false, nil
}

// failBlock records a per-block failure: the block keeps its place in the
// sequence with the failure sentinel as its asset reference.
func (d *Dispatcher) failBlock(ctx context.Context, block document.Block, operation string, err error) (document.Block, string, bool, error) {
	warning := fmt.Sprintf("block %d (%s): %s: %v", block.SequenceIndex, block.Kind, operation, err)
	d.logger.WarnContext(ctx, "block render failed",
		logging.Int("block_index", block.SequenceIndex),
		logging.String("block_kind", string(block.Kind)),
		logging.Error(err))
	block.AssetRef = document.AssetRefFailed
	return block, warning, false, nil
}

func (d *Dispatcher) lookupCache(ctx context.Context, key, dest string) bool {
	hit, err := d.cache.Lookup(ctx, key, dest)
	if err != nil {
		// Cache trouble degrades to a plain render.
		d.logger.WarnContext(ctx, "cache lookup failed", logging.Error(err))
		return false
	}
	if hit {
		d.logger.DebugContext(ctx, "cache hit", logging.String("dest", dest))
	}
	return hit
}

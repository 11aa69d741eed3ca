package bundle

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/singleflight"

	"github.com/andyballingall/bundle-stager/internal/config"
)

// Result describes one successful build.
type Result struct {
	Outfile  string
	Metafile string
	Warnings int
	Duration time.Duration
}

// Builder owns an incremental esbuild context for one BuildConfig.
type Builder struct {
	cfg    config.BuildConfig
	opts   api.BuildOptions
	logger *slog.Logger

	mu     sync.Mutex
	bctx   api.BuildContext
	flight singleflight.Group

	newContext func(api.BuildOptions) (api.BuildContext, *api.ContextError)
}

// New creates a Builder. No work happens until Build is called.
func New(cfg config.BuildConfig, logger *slog.Logger, plugins ...api.Plugin) *Builder {
	return &Builder{
		cfg:        cfg,
		opts:       Options(cfg, plugins...),
		logger:     logger.With("component", "bundle"),
		newContext: api.Context,
	}
}

// Build performs the initial build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.logger.Info("Bundling", "entry", b.cfg.EntryPoint, "outfile", b.cfg.Outfile,
		"minify", b.cfg.Minify(), "sourcemap", b.cfg.SourceMap(), "revision", b.cfg.Revision)
	return b.Rebuild(ctx)
}

// Rebuild builds again, reusing the work of earlier builds. Calls that overlap an
// in-flight build share its result.
func (b *Builder) Rebuild(ctx context.Context) (*Result, error) {
	v, err, _ := b.flight.Do("build", func() (interface{}, error) {
		return b.rebuild(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (b *Builder) rebuild(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := b.context()
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	start := time.Now()
	result := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, w := range formatMessages(result.Warnings, api.WarningMessage) {
		b.logger.Warn(strings.TrimSpace(w))
	}
	if len(result.Errors) > 0 {
		return nil, &BuildFailedError{Entry: b.cfg.EntryPoint, Messages: result.Errors}
	}

	res := &Result{
		Outfile:  b.cfg.Outfile,
		Metafile: result.Metafile,
		Warnings: len(result.Warnings),
		Duration: time.Since(start),
	}
	b.logger.Debug("Bundle written", "outfile", res.Outfile, "duration", res.Duration)
	return res, nil
}

func (b *Builder) context() (api.BuildContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bctx != nil {
		return b.bctx, nil
	}
	bctx, cErr := b.newContext(b.opts)
	if cErr != nil {
		return nil, &ContextError{Messages: cErr.Errors}
	}
	b.bctx = bctx
	return bctx, nil
}

// Close releases the esbuild context. The Builder must not be used afterwards.
func (b *Builder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bctx != nil {
		b.bctx.Dispose()
		b.bctx = nil
	}
}

package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/andyballingall/bundle-stager/internal/bundle"
	"github.com/andyballingall/bundle-stager/internal/config"
	"github.com/andyballingall/bundle-stager/internal/patch"
	"github.com/andyballingall/bundle-stager/internal/repo"
	"github.com/andyballingall/bundle-stager/internal/report"
	"github.com/andyballingall/bundle-stager/internal/stage"
	"github.com/andyballingall/bundle-stager/internal/watch"
)

// ReportOptions controls how the run summary is written.
type ReportOptions struct {
	Format    string
	Verbose   bool
	UseColour bool
}

// Manager defines the operations behind the bstage commands.
type Manager interface {
	Build(ctx context.Context, ro ReportOptions) error
	Restore(ctx context.Context) error
	Config() config.BuildConfig
}

// Ensure the interface is satisfied.
var _ Manager = (*LazyManager)(nil)

// LazyManager acts as a placeholder for a real Manager implementation, allowing
// for deferred initialization of dependencies.
type LazyManager struct {
	inner Manager
}

func (l *LazyManager) SetInner(m Manager) {
	l.inner = m
}

// HasInner returns true if the inner manager has been set.
func (l *LazyManager) HasInner() bool {
	return l.inner != nil
}

// Close releases the inner manager's resources, if it holds any.
func (l *LazyManager) Close() error {
	if c, ok := l.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *LazyManager) check() Manager {
	if l.inner == nil {
		panic("LazyManager accessed before initialization; check command wiring.")
	}
	return l.inner
}

func (l *LazyManager) Build(ctx context.Context, ro ReportOptions) error {
	return l.check().Build(ctx, ro)
}

func (l *LazyManager) Restore(ctx context.Context) error {
	return l.check().Restore(ctx)
}

func (l *LazyManager) Config() config.BuildConfig {
	return l.check().Config()
}

// Ensure the interface is satisfied.
var _ Manager = (*CLIManager)(nil)

// CLIManager is the concrete implementation of the Manager interface.
type CLIManager struct {
	logger         *slog.Logger
	cfg            config.BuildConfig
	revisioner     repo.Revisioner
	reporterWriter io.Writer
	logCloser      io.Closer

	// ready, when set, is signalled once watch mode is monitoring the source tree.
	ready chan<- struct{}
}

func NewCLIManager(
	l *slog.Logger,
	cfg config.BuildConfig,
	r repo.Revisioner,
	w io.Writer,
) *CLIManager {
	return &CLIManager{
		logger:         l,
		cfg:            cfg,
		revisioner:     r,
		reporterWriter: w,
	}
}

func (m *CLIManager) Config() config.BuildConfig {
	return m.cfg
}

// Close closes the log file, if one was opened.
func (m *CLIManager) Close() error {
	if m.logCloser == nil {
		return nil
	}
	return m.logCloser.Close()
}

// Build stamps, bundles and stages once. In watch mode it then keeps rebuilding the
// bundle on source changes until ctx is cancelled, which counts as a clean exit.
func (m *CLIManager) Build(ctx context.Context, ro ReportOptions) error {
	start := time.Now()

	stamp, err := repo.Stamp(ctx, m.revisioner, m.cfg.SourceDir)
	if err != nil {
		m.logger.Debug("Revision unavailable, building without one", "error", err)
	}
	cfg := m.cfg.WithRevision(stamp)
	m.logger.Debug("Resolved build configuration", "root", cfg.RootDir, "environment", cfg.Environment,
		"revision", cfg.Revision, "minify", cfg.Minify(), "sourcemap", cfg.SourceMap())

	builder := bundle.New(cfg, m.logger, patch.Plugin(cfg.SourceDir, patch.DefaultRules...))
	defer builder.Close()

	res, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	staged, err := stage.New(cfg, m.logger).Stage(ctx)
	if err != nil {
		return err
	}

	if err := m.writeReport(report.NewSummary(cfg, res, staged, start, time.Now()), ro); err != nil {
		m.logger.Error("Failed to write report", "error", err)
	}

	if !cfg.Watch {
		return nil
	}
	return m.watch(ctx, cfg, builder)
}

func (m *CLIManager) watch(ctx context.Context, cfg config.BuildConfig, builder *bundle.Builder) error {
	w := watch.New(cfg.SourceDir, m.logger)

	go func() {
		select {
		case <-w.Ready:
			m.logger.Info("Watching for changes", "dir", cfg.SourceDir)
			if m.ready != nil {
				m.ready <- struct{}{}
			}
		case <-ctx.Done():
		}
	}()

	err := w.Watch(ctx, func(ev watch.Event) {
		m.logger.Debug("Change detected", "path", ev.Path, "op", ev.Op.String())
		res, err := builder.Rebuild(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Error("watch build failed", "error", err)
			return
		}
		m.logger.Info("watch build succeeded", "outfile", res.Outfile, "duration", res.Duration)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Restore moves the previous content of every staged asset back from the backup root.
func (m *CLIManager) Restore(ctx context.Context) error {
	restored, err := stage.New(m.cfg, m.logger).Restore(ctx)
	if err != nil {
		return err
	}
	if len(restored) == 0 {
		m.logger.Info("Nothing to restore", "backupRoot", m.cfg.BackupRoot)
		return nil
	}
	m.logger.Info("Restore complete", "count", len(restored))
	return nil
}

func (m *CLIManager) writeReport(s *report.Summary, ro ReportOptions) error {
	var reporter report.Reporter
	switch ro.Format {
	case FormatJSON:
		reporter = &report.JSONReporter{}
	default:
		reporter = &report.TextReporter{Verbose: ro.Verbose, UseColour: ro.UseColour}
	}
	return reporter.Write(m.reporterWriter, s)
}

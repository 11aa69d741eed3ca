// Package stage copies the fixed set of auxiliary assets from the source checkout into
// the project root. Whatever occupied a destination before is moved into a backup root
// rather than deleted, and the backup root only ever holds the latest generation.
package stage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"

	"github.com/andyballingall/bundle-stager/internal/config"
	"github.com/andyballingall/bundle-stager/internal/fs"
)

// Operation records where one asset comes from, where it goes and where the
// displaced destination is kept.
type Operation struct {
	Asset       string `json:"asset"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Backup      string `json:"backup"`
	// BackedUp is set once a previous destination has been moved into Backup.
	BackedUp bool `json:"backedUp"`
}

// Stager stages assets for one BuildConfig.
type Stager struct {
	sourceRoot string
	destRoot   string
	backupRoot string
	assets     []string
	logger     *slog.Logger

	rename  func(oldpath, newpath string) error
	copyDir func(src, dest string, opts ...copy.Options) error
}

// New creates a Stager. Assets are read from cfg.SourceDir and written below cfg.RootDir.
func New(cfg config.BuildConfig, logger *slog.Logger) *Stager {
	return &Stager{
		sourceRoot: cfg.SourceDir,
		destRoot:   cfg.RootDir,
		backupRoot: cfg.BackupRoot,
		assets:     append([]string(nil), cfg.Assets...),
		logger:     logger.With("component", "stage"),
		rename:     os.Rename,
		copyDir:    copy.Copy,
	}
}

// BackupRoot returns the directory holding displaced destinations.
func (s *Stager) BackupRoot() string {
	return s.backupRoot
}

// Plan computes the operations for every asset, in staging order, without touching disk.
func (s *Stager) Plan() ([]Operation, error) {
	ops := make([]Operation, 0, len(s.assets))
	for _, a := range s.assets {
		if !filepath.IsLocal(filepath.FromSlash(a)) {
			return nil, &InvalidAssetError{Asset: a}
		}
		rel := filepath.FromSlash(a)
		ops = append(ops, Operation{
			Asset:       a,
			Source:      filepath.Join(s.sourceRoot, rel),
			Destination: filepath.Join(s.destRoot, rel),
			Backup:      filepath.Join(s.backupRoot, rel),
		})
	}
	return ops, nil
}

// Stage clears the backup root and then stages every asset in order. It stops at the
// first failure; the operations completed so far are returned with the error.
func (s *Stager) Stage(ctx context.Context) ([]Operation, error) {
	ops, err := s.Plan()
	if err != nil {
		return nil, err
	}

	if err := s.clearBackups(); err != nil {
		return nil, err
	}

	done := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := s.stageOne(&op); err != nil {
			return done, err
		}
		done = append(done, op)
	}
	s.logger.Info("Assets staged", "count", len(done), "backupRoot", s.backupRoot)
	return done, nil
}

func (s *Stager) clearBackups() error {
	ok, err := fs.Exists(s.backupRoot)
	if err != nil {
		return &ClearBackupError{Path: s.backupRoot, Wrapped: err}
	}
	if !ok {
		return nil
	}
	s.logger.Debug("Clearing previous backups", "path", s.backupRoot)
	if err := os.RemoveAll(s.backupRoot); err != nil {
		return &ClearBackupError{Path: s.backupRoot, Wrapped: err}
	}
	return nil
}

func (s *Stager) stageOne(op *Operation) error {
	if _, err := os.Lstat(op.Source); err != nil {
		return &SourceMissingError{Asset: op.Asset, Path: op.Source, Wrapped: err}
	}

	exists, err := fs.Exists(op.Destination)
	if err != nil {
		return &BackupError{Asset: op.Asset, From: op.Destination, To: op.Backup, Wrapped: err}
	}
	if exists {
		if err := os.MkdirAll(filepath.Dir(op.Backup), 0o755); err != nil {
			return &BackupError{Asset: op.Asset, From: op.Destination, To: op.Backup, Wrapped: err}
		}
		if err := s.rename(op.Destination, op.Backup); err != nil {
			return &BackupError{Asset: op.Asset, From: op.Destination, To: op.Backup, Wrapped: err}
		}
		op.BackedUp = true
		s.logger.Debug("Moved existing destination to backup", "asset", op.Asset, "backup", op.Backup)
	}

	if err := os.MkdirAll(filepath.Dir(op.Destination), 0o755); err != nil {
		return &CopyError{Asset: op.Asset, From: op.Source, To: op.Destination, Wrapped: err}
	}
	if err := s.copyDir(op.Source, op.Destination, copy.Options{
		OnSymlink: func(string) copy.SymlinkAction { return copy.Shallow },
	}); err != nil {
		return &CopyError{Asset: op.Asset, From: op.Source, To: op.Destination, Wrapped: err}
	}
	s.logger.Debug("Staged "+op.Asset, "from", op.Source, "to", op.Destination)
	return nil
}

// Restore moves every backed up asset from the backup root back to its destination,
// replacing what the last run staged there. Assets without a backup are left alone.
func (s *Stager) Restore(ctx context.Context) ([]Operation, error) {
	ops, err := s.Plan()
	if err != nil {
		return nil, err
	}

	restored := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return restored, err
		}
		ok, err := fs.Exists(op.Backup)
		if err != nil {
			return restored, &RestoreError{Asset: op.Asset, Wrapped: err}
		}
		if !ok {
			s.logger.Debug("No backup to restore", "asset", op.Asset)
			continue
		}
		if err := os.RemoveAll(op.Destination); err != nil {
			return restored, &RestoreError{Asset: op.Asset, Wrapped: err}
		}
		if err := os.MkdirAll(filepath.Dir(op.Destination), 0o755); err != nil {
			return restored, &RestoreError{Asset: op.Asset, Wrapped: err}
		}
		if err := s.rename(op.Backup, op.Destination); err != nil {
			return restored, &RestoreError{Asset: op.Asset, Wrapped: err}
		}
		op.BackedUp = true
		restored = append(restored, op)
		s.logger.Info("Restored "+op.Asset, "from", op.Backup)
	}
	return restored, nil
}

package stage

import (
	"fmt"
)

// InvalidAssetError is returned for asset paths that are absolute or escape their root.
type InvalidAssetError struct {
	Asset string
}

func (e *InvalidAssetError) Error() string {
	return fmt.Sprintf("asset path %q must be relative and stay inside its root", e.Asset)
}

// SourceMissingError is returned when an asset is absent from the source checkout.
// Nothing at the destination has been touched when it is returned.
type SourceMissingError struct {
	Asset   string
	Path    string
	Wrapped error
}

func (e *SourceMissingError) Error() string {
	return fmt.Sprintf("asset %s: source %s is not available: %v", e.Asset, e.Path, e.Wrapped)
}

func (e *SourceMissingError) Unwrap() error { return e.Wrapped }

// ClearBackupError is returned when the previous generation of backups cannot be removed.
type ClearBackupError struct {
	Path    string
	Wrapped error
}

func (e *ClearBackupError) Error() string {
	return fmt.Sprintf("failed to clear backup root %s: %v", e.Path, e.Wrapped)
}

func (e *ClearBackupError) Unwrap() error { return e.Wrapped }

// BackupError is returned when an existing destination cannot be moved into the backup root.
type BackupError struct {
	Asset   string
	From    string
	To      string
	Wrapped error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("asset %s: failed to move %s to %s: %v", e.Asset, e.From, e.To, e.Wrapped)
}

func (e *BackupError) Unwrap() error { return e.Wrapped }

// CopyError is returned when an asset cannot be copied into place.
type CopyError struct {
	Asset   string
	From    string
	To      string
	Wrapped error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("asset %s: failed to copy %s to %s: %v", e.Asset, e.From, e.To, e.Wrapped)
}

func (e *CopyError) Unwrap() error { return e.Wrapped }

// RestoreError is returned when a backup cannot be moved back to its destination.
type RestoreError struct {
	Asset   string
	Wrapped error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("asset %s: restore failed: %v", e.Asset, e.Wrapped)
}

func (e *RestoreError) Unwrap() error { return e.Wrapped }

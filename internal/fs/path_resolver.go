package fs

import (
	"path/filepath"
)

// PathResolver provides path resolution operations.
type PathResolver interface {
	// Abs returns the absolute path.
	Abs(path string) (string, error)
	// Exists reports whether something occupies the path. A dangling symlink counts.
	Exists(path string) (bool, error)
}

// StandardPathResolver is the default implementation using standard library functions.
type StandardPathResolver struct{}

// NewPathResolver creates a new StandardPathResolver.
func NewPathResolver() *StandardPathResolver {
	return &StandardPathResolver{}
}

// Abs returns the absolute path.
func (r *StandardPathResolver) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

func (r *StandardPathResolver) Exists(path string) (bool, error) {
	return Exists(path)
}

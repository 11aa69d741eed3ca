package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Exists reports whether anything occupies path. It uses Lstat so a symlink is
// reported as present even when its target is missing.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// RelSlash returns target relative to base, always using forward slashes
// so the result can be matched against patterns written for any platform.
func RelSlash(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

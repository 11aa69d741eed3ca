package repo

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/andyballingall/bundle-stager/internal/fs"
)

// CLIGitter is the concrete implementation of Revisioner using the git CLI.
type CLIGitter struct {
	// Binary is the git executable to run.
	Binary string
}

// NewCLIGitter creates a new CLIGitter instance.
func NewCLIGitter() *CLIGitter {
	return &CLIGitter{Binary: "git"}
}

// HeadRevision runs `git rev-parse HEAD` inside dir. The directory must be the top of a
// checkout: a plain directory nested in some other repository would otherwise report
// that repository's HEAD.
func (g *CLIGitter) HeadRevision(ctx context.Context, dir string) (Revision, error) {
	ok, err := fs.Exists(filepath.Join(dir, ".git"))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &NotACheckoutError{Dir: dir}
	}

	out, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return Revision(out), nil
}

func (g *CLIGitter) run(ctx context.Context, dir string, args ...string) (string, error) {
	//nolint:gosec // arguments are fixed by the caller
	cmd := exec.CommandContext(ctx, g.Binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &GitError{Args: args, Output: stderr.String(), Wrapped: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Package main provides integration tests for the bstage CLI.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andyballingall/bundle-stager/internal/app"
	"github.com/andyballingall/bundle-stager/internal/config"
)

var binaryPath string

var (
	errBuild  error
	buildOnce sync.Once
)

func ensureBinary() error {
	buildOnce.Do(func() {
		tmpDir, err := os.MkdirTemp("", "bstage-integration-test-*")
		if err != nil {
			errBuild = fmt.Errorf("failed to create temp dir: %w", err)
			return
		}

		binaryName := "bstage"
		if runtime.GOOS == "windows" {
			binaryName += ".exe"
		}
		binaryPath = filepath.Join(tmpDir, binaryName)

		cmd := exec.CommandContext(context.Background(), "go", "build", "-o", binaryPath, ".")
		if bOutput, bErr := cmd.CombinedOutput(); bErr != nil {
			errBuild = fmt.Errorf("failed to build binary: %w\nOutput: %s", bErr, string(bOutput))
		}
	})
	return errBuild
}

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"bstage": func() int {
			if err := app.Run(context.Background(), os.Args, os.Stdout, os.Stderr, nil); err != nil {
				return 1
			}
			return 0
		},
	}))
}

func TestScripts(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}

// lockedBuffer collects the output of a running process.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func setupIntegrationProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		filepath.FromSlash(config.DefaultEntryPoint): "console.log('first')\n",
	}
	for _, a := range config.DefaultAssets {
		files[filepath.Join(filepath.FromSlash(a), "README")] = a
	}
	for name, content := range files {
		path := filepath.Join(root, config.DefaultSourceDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func TestBinary_Help(t *testing.T) {
	t.Parallel()
	if err := ensureBinary(); err != nil {
		t.Fatal(err)
	}
	cmd := exec.CommandContext(context.Background(), binaryPath, "--help")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	require.NoError(t, err, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "bstage bundles the TypeScript entry point")
}

func TestBinary_WatchExitsCleanlyOnInterrupt(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("interrupt cannot be delivered to a child process on windows")
	}
	if err := ensureBinary(); err != nil {
		t.Fatal(err)
	}
	root := setupIntegrationProject(t)

	cmd := exec.CommandContext(context.Background(), binaryPath, "--watch", "--root", root)
	cmd.Env = append(os.Environ(),
		config.NodeEnvVar+"=development",
		config.BackupRootEnvVar+"="+filepath.Join(t.TempDir(), "trash"),
	)
	stderr := &lockedBuffer{}
	cmd.Stdout = &bytes.Buffer{}
	cmd.Stderr = stderr
	require.NoError(t, cmd.Start())

	waitFor := func(text string) {
		t.Helper()
		require.Eventually(t, func() bool {
			return strings.Contains(stderr.String(), text)
		}, 20*time.Second, 50*time.Millisecond, "waiting for %q, stderr: %s", text, stderr.String())
	}

	waitFor("Watching for changes")

	entry := filepath.Join(root, config.DefaultSourceDir, filepath.FromSlash(config.DefaultEntryPoint))
	require.NoError(t, os.WriteFile(entry, []byte("console.log('second')\n"), 0o600))
	waitFor("watch build succeeded")

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(config.DefaultOutfile)))
	require.NoError(t, err)
	assert.Contains(t, string(data), "second")

	require.NoError(t, cmd.Process.Signal(os.Interrupt))
	require.NoError(t, cmd.Wait(), "stderr: %s", stderr.String())
	assert.Equal(t, 0, cmd.ProcessState.ExitCode())
}

package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andyballingall/bundle-stager/internal/config"
	"github.com/andyballingall/bundle-stager/internal/fs"
	"github.com/andyballingall/bundle-stager/internal/repo"
)

const mainSource = `declare const REVISION: string

console.log('started', REVISION)
`

type MockManager struct {
	mock.Mock
	cfg config.BuildConfig
}

func (m *MockManager) Build(ctx context.Context, ro ReportOptions) error {
	args := m.Called(ctx, ro)
	return args.Error(0)
}

func (m *MockManager) Restore(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockManager) Config() config.BuildConfig {
	return m.cfg
}

type fakeRevisioner struct {
	rev repo.Revision
	err error
}

func (f fakeRevisioner) HeadRevision(_ context.Context, _ string) (repo.Revision, error) {
	return f.rev, f.err
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a watching build.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// setupProject creates a project root whose source checkout holds an entry point and
// every default asset.
func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, config.DefaultSourceDir)
	writeFile(t, filepath.Join(src, filepath.FromSlash(config.DefaultEntryPoint)), mainSource)
	for _, a := range config.DefaultAssets {
		writeFile(t, filepath.Join(src, filepath.FromSlash(a), "README"), a)
	}
	return root
}

// testConfig resolves the configuration of a project created by setupProject.
func testConfig(t *testing.T, root string, env config.Env, watch bool) config.BuildConfig {
	t.Helper()
	cfg, err := config.Resolve(config.Options{RootDir: root, Watch: watch}, fs.MapEnvProvider{
		config.NodeEnvVar:       string(env),
		config.BackupRootEnvVar: filepath.Join(t.TempDir(), "trash"),
	})
	require.NoError(t, err)
	return cfg
}

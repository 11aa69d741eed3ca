package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andyballingall/bundle-stager/internal/fs"
)

func TestRootCmd(t *testing.T) {
	t.Parallel()

	setup := func() (*MockManager, *slog.LevelVar, *cobra.Command) {
		mgr := &MockManager{}
		lazy := &LazyManager{inner: mgr}
		logLevel := &slog.LevelVar{}
		var stdout, stderr bytes.Buffer
		rootCmd := NewRootCmd(lazy, logLevel, &stdout, &stderr, fs.MapEnvProvider{})
		return mgr, logLevel, rootCmd
	}

	t.Run("help", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd := setup()
		rootCmd.SetArgs([]string{"--help"})
		require.NoError(t, rootCmd.Execute())
		mgr.AssertNotCalled(t, "Build", mock.Anything, mock.Anything)
	})

	t.Run("version", func(t *testing.T) {
		t.Parallel()
		_, _, rootCmd := setup()
		rootCmd.SetArgs([]string{"--version"})
		require.NoError(t, rootCmd.Execute())
	})

	t.Run("default build", func(t *testing.T) {
		t.Parallel()
		mgr, logLevel, rootCmd := setup()
		mgr.On("Build", mock.Anything, ReportOptions{Format: FormatText, UseColour: true}).Return(nil)

		rootCmd.SetArgs([]string{})
		require.NoError(t, rootCmd.Execute())
		assert.Equal(t, slog.LevelInfo, logLevel.Level())
		mgr.AssertExpectations(t)
	})

	t.Run("report flags and debug", func(t *testing.T) {
		t.Parallel()
		mgr, logLevel, rootCmd := setup()
		mgr.On("Build", mock.Anything, ReportOptions{Format: FormatJSON, Verbose: true}).Return(nil)

		rootCmd.SetArgs([]string{"-o", "json", "--verbose", "--nocolour", "--debug"})
		require.NoError(t, rootCmd.Execute())
		assert.Equal(t, slog.LevelDebug, logLevel.Level())
		mgr.AssertExpectations(t)
	})

	t.Run("unknown flags and arguments are ignored", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd := setup()
		mgr.On("Build", mock.Anything, mock.Anything).Return(nil)

		rootCmd.SetArgs([]string{"--frobnicate", "extra", "-z", "more"})
		require.NoError(t, rootCmd.Execute())
		mgr.AssertNumberOfCalls(t, "Build", 1)
	})

	t.Run("invalid output format", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd := setup()
		rootCmd.SetArgs([]string{"--output", "xml"})
		require.Error(t, rootCmd.Execute())
		mgr.AssertNotCalled(t, "Build", mock.Anything, mock.Anything)
	})

	t.Run("build error is returned", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd := setup()
		mgr.On("Build", mock.Anything, mock.Anything).Return(assert.AnError)

		rootCmd.SetArgs([]string{})
		require.ErrorIs(t, rootCmd.Execute(), assert.AnError)
	})

	t.Run("restore subcommand", func(t *testing.T) {
		t.Parallel()
		mgr, _, rootCmd := setup()
		mgr.On("Restore", mock.Anything).Return(nil)

		rootCmd.SetArgs([]string{"restore", "--whatever"})
		require.NoError(t, rootCmd.Execute())
		mgr.AssertExpectations(t)
		mgr.AssertNotCalled(t, "Build", mock.Anything, mock.Anything)
	})

	t.Run("completion skips initialisation", func(t *testing.T) {
		t.Parallel()
		lazy := &LazyManager{}
		rootCmd := NewRootCmd(lazy, &slog.LevelVar{}, &bytes.Buffer{}, &bytes.Buffer{}, fs.MapEnvProvider{})
		rootCmd.SetArgs([]string{"completion", "bash"})
		require.NoError(t, rootCmd.Execute())
		assert.False(t, lazy.HasInner())
	})
}

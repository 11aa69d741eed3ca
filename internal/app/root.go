package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/andyballingall/bundle-stager/internal/config"
	"github.com/andyballingall/bundle-stager/internal/fs"
	"github.com/andyballingall/bundle-stager/internal/repo"
)

// Version is the current version of bstage, set at build time.
var Version = "dev"

var LongDescription = `
bstage bundles the TypeScript entry point of a nested source checkout into a single
node script, stamped with the checkout's revision, and stages the checkout's runtime
assets next to it. Anything a build would overwrite is first moved into a backup
directory, which always holds the previous generation.

Set NODE_ENV=production for a minified bundle and NODE_ENV=development for source maps.
`

// NewRootCmd creates the root command and wires up dependencies.
func NewRootCmd(lazy *LazyManager, ll *slog.LevelVar, stdout, stderr io.Writer, envProvider fs.EnvProvider) *cobra.Command {
	var debug bool
	var watch bool
	var verbose bool
	var noColour bool
	rootPath := pathValue("")
	outputVal := formatValue(FormatText)

	rootCmd := &cobra.Command{
		Use:           "bstage",
		Short:         "Bundle a nested checkout and stage its assets",
		Long:          LongDescription,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		// Anything the build does not know about is ignored rather than rejected.
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || isCompletionCommand(cmd) {
				return nil
			}
			if debug {
				ll.Set(slog.LevelDebug)
			}
			// Skip if already initialised (e.g., in tests)
			if lazy.HasInner() {
				return nil
			}

			cfg, err := config.Resolve(config.Options{
				RootDir: string(rootPath),
				Watch:   watch,
			}, envProvider)
			if err != nil {
				return fmt.Errorf("configuration failed: %w", err)
			}

			logger, closer, err := setupLogger(stderr, ll, envProvider, cfg.RootDir)
			if err != nil {
				logger.Warn("logging to file disabled", "error", err)
			}

			mgr := NewCLIManager(logger, cfg, repo.NewCLIGitter(), stdout)
			mgr.logCloser = closer
			lazy.SetInner(mgr)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return lazy.Build(cmd.Context(), ReportOptions{
				Format:    string(outputVal),
				Verbose:   verbose,
				UseColour: !noColour,
			})
		},
	}

	rootCmd.PersistentFlags().VarP(&rootPath, "root", "r", "project root holding the source checkout (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Stay running and rebuild the bundle when sources change")
	rootCmd.Flags().VarP(&outputVal, "output", "o", "Report format (text, json)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show bundled packages and asset paths in the report")
	rootCmd.Flags().BoolVarP(&noColour, "nocolour", "c", false, "Disable colour in output")
	// Support alternate spellings
	rootCmd.Flags().BoolVar(&noColour, "nocolor", false, "")
	_ = rootCmd.Flags().MarkHidden("nocolor")

	rootCmd.AddCommand(NewRestoreCmd(lazy))

	return rootCmd
}

// isCompletionCommand returns true if the command or any of its parents is the "completion" command.
func isCompletionCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "completion" {
			return true
		}
	}
	return false
}

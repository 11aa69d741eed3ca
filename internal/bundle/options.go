// Package bundle compiles the upstream entry point into a single node bundle with esbuild.
package bundle

import (
	"encoding/json"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/andyballingall/bundle-stager/internal/config"
)

// Names of the compile-time constants injected into the bundle.
const (
	RevisionDefine = "REVISION"
	BundlerDefine  = "ESBUILD"
)

// GuardBanner returns a script that refuses to start the bundle on a node release older than v.
func GuardBanner(v config.NodeVersion) string {
	return fmt.Sprintf(`(function () {
  var v = process.version
  var parts = v.slice(1).split('.')
  var major = parseInt(parts[0], 10)
  var minor = parseInt(parts[1], 10)
  if (major < %[1]d || (major == %[1]d && minor < %[2]d)) {
    throw new Error('requires node >= v%[1]d.%[2]d.0, current version: ' + v)
  }
})(); `, v.Major, v.Minor)
}

// Options maps a BuildConfig onto esbuild build options.
func Options(cfg config.BuildConfig, plugins ...api.Plugin) api.BuildOptions {
	// json.Marshal of a string cannot fail.
	revision, _ := json.Marshal(cfg.Revision)

	sourcemap := api.SourceMapNone
	if cfg.SourceMap() {
		sourcemap = api.SourceMapLinked
	}

	return api.BuildOptions{
		EntryPoints:   []string{cfg.EntryPoint},
		Outfile:       cfg.Outfile,
		AbsWorkingDir: cfg.RootDir,
		Bundle:        true,
		Write:         true,
		Metafile:      true,
		Platform:      api.PlatformNode,
		Format:        api.FormatCommonJS,
		Engines: []api.Engine{
			{Name: api.EngineNode, Version: cfg.MinNode.String()},
		},
		MainFields:        []string{"module", "main"},
		MinifyWhitespace:  cfg.Minify(),
		MinifyIdentifiers: cfg.Minify(),
		MinifySyntax:      cfg.Minify(),
		Sourcemap:         sourcemap,
		Define: map[string]string{
			RevisionDefine: string(revision),
			BundlerDefine:  "true",
		},
		Banner: map[string]string{
			"js": GuardBanner(cfg.MinNode),
		},
		LogLevel: api.LogLevelSilent,
		Plugins:  plugins,
	}
}

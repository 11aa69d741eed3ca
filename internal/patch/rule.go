// Package patch rewrites the source of selected third-party modules while they are
// being bundled, without touching the files on disk.
package patch

import (
	"regexp"
	"strings"
)

// Rule describes one module whose source is rewritten during bundling.
type Rule struct {
	// Name identifies the rule in logs and build errors.
	Name string
	// ResolveFilter is the esbuild filter (Go regexp syntax) on import paths that may
	// refer to the module.
	ResolveFilter string
	// Module matches the module directory, relative to the project root, using forward slashes.
	Module *regexp.Regexp
	// EntryFile is the file inside the module directory that is loaded and rewritten.
	EntryFile string
	// Rewrite maps the original source text to the patched text.
	Rewrite func(src string) string
}

// mainModuleProbe is the expression log4js uses to look up the entry module of the
// hosting process. Inside a single-file bundle it points at the bundle itself.
const mainModuleProbe = "require.main"

// NeutraliseMainModule replaces every occurrence of require.main with an empty string
// literal and leaves everything else untouched.
func NeutraliseMainModule(src string) string {
	return strings.ReplaceAll(src, mainModuleProbe, `""`)
}

// Log4jsAppenders stops log4js from probing the entry module when it loads its appenders.
var Log4jsAppenders = Rule{
	Name:          "log4js-appenders",
	ResolveFilter: `/appenders`,
	Module:        regexp.MustCompile(`(^|/)node_modules/log4js/lib/appenders$`),
	EntryFile:     "index.js",
	Rewrite:       NeutraliseMainModule,
}

// DefaultRules are applied to every bundle.
var DefaultRules = []Rule{Log4jsAppenders}

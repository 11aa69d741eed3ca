package patch

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/andyballingall/bundle-stager/internal/fs"
)

// Namespace is the esbuild namespace patched modules are loaded from.
const Namespace = "bstage-patch"

// PluginName is reported by esbuild for messages raised by the plugin.
const PluginName = "bstage-patch"

// ReadError is returned when the file behind a patched module cannot be read.
type ReadError struct {
	Rule    string
	Path    string
	Wrapped error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("patch %s: cannot read %s: %v", e.Rule, e.Path, e.Wrapped)
}

func (e *ReadError) Unwrap() error { return e.Wrapped }

// Plugin returns an esbuild plugin applying rules to modules below root.
//
// Relative imports matching a rule's ResolveFilter are resolved against the importing
// directory. When the result is the rule's module they are moved into Namespace using
// their root-relative path, and the load hook serves the rewritten entry file from there.
// All other imports resolve normally.
func Plugin(root string, rules ...Rule) api.Plugin {
	return api.Plugin{
		Name: PluginName,
		Setup: func(build api.PluginBuild) {
			for _, r := range rules {
				setupRule(build, root, r)
			}
		},
	}
}

func setupRule(build api.PluginBuild, root string, r Rule) {
	build.OnResolve(api.OnResolveOptions{Filter: r.ResolveFilter},
		func(args api.OnResolveArgs) (api.OnResolveResult, error) {
			rel, ok := moduleFor(root, r, args)
			if !ok {
				return api.OnResolveResult{}, nil
			}
			return api.OnResolveResult{Path: rel, Namespace: Namespace}, nil
		})

	build.OnLoad(api.OnLoadOptions{Filter: r.Module.String(), Namespace: Namespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			dir := filepath.Join(root, filepath.FromSlash(args.Path))
			file := filepath.Join(dir, r.EntryFile)
			src, err := os.ReadFile(file)
			if err != nil {
				return api.OnLoadResult{}, &ReadError{Rule: r.Name, Path: file, Wrapped: err}
			}
			contents := r.Rewrite(string(src))
			return api.OnLoadResult{
				Contents:   &contents,
				ResolveDir: dir,
				Loader:     api.LoaderJS,
				WatchFiles: []string{file},
			}, nil
		})
}

// moduleFor reports the root-relative module path an import refers to, if it is the
// module targeted by r.
func moduleFor(root string, r Rule, args api.OnResolveArgs) (string, bool) {
	if args.ResolveDir == "" || !isRelativeImport(args.Path) {
		return "", false
	}
	full := filepath.Join(args.ResolveDir, filepath.FromSlash(args.Path))
	rel, err := fs.RelSlash(root, full)
	if err != nil || strings.HasPrefix(rel, "../") {
		return "", false
	}
	rel = path.Clean(rel)
	if !r.Module.MatchString(rel) {
		return "", false
	}
	return rel, true
}

func isRelativeImport(p string) bool {
	return p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

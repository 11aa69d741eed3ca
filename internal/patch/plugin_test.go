package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const log4jsCore = `const appenders = require('./appenders');
module.exports = { appenders, marker: "log4js-core-marker" };
`

const log4jsAppenders = `const stdout = require('./stdout');
const mainModule = require.main ? require.main.filename : process.cwd();
module.exports = { stdout, mainModule, marker: "appenders-marker" };
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func setupProject(t *testing.T, mainSrc string) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"node_modules/log4js/lib/log4js.js":           log4jsCore,
		"node_modules/log4js/lib/appenders/index.js":  log4jsAppenders,
		"node_modules/log4js/lib/appenders/stdout.js": `module.exports = "stdout-appender";` + "\n",
		"src/main.js": mainSrc,
	})
	return root
}

func bundle(t *testing.T, root string, plugins ...api.Plugin) api.BuildResult {
	t.Helper()
	return api.Build(api.BuildOptions{
		EntryPoints:   []string{"src/main.js"},
		Outfile:       filepath.Join(root, "out", "index.js"),
		AbsWorkingDir: root,
		Bundle:        true,
		Write:         false,
		Platform:      api.PlatformNode,
		Format:        api.FormatCommonJS,
		LogLevel:      api.LogLevelSilent,
		Plugins:       plugins,
	})
}

func output(t *testing.T, result api.BuildResult) string {
	t.Helper()
	require.Empty(t, result.Errors)
	require.Len(t, result.OutputFiles, 1)
	return string(result.OutputFiles[0].Contents)
}

func TestNeutraliseMainModule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "every occurrence is replaced",
			in:   log4jsAppenders,
			want: `const stdout = require('./stdout');
const mainModule = "" ? "".filename : process.cwd();
module.exports = { stdout, mainModule, marker: "appenders-marker" };
`,
		},
		{
			name: "plain require calls are untouched",
			in:   `const x = require('./main');`,
			want: `const x = require('./main');`,
		},
		{
			name: "no occurrence",
			in:   "module.exports = 1;\n",
			want: "module.exports = 1;\n",
		},
		{
			name: "empty source",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NeutraliseMainModule(tt.in))
		})
	}
}

func TestPlugin(t *testing.T) {
	t.Parallel()

	const mainSrc = "const log4js = require('../node_modules/log4js/lib/log4js.js');\nconsole.log(log4js);\n"

	t.Run("unpatched bundle keeps the probe", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t, mainSrc)

		out := output(t, bundle(t, root))
		assert.Contains(t, out, "require.main")
	})

	t.Run("patched bundle drops the probe", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t, mainSrc)

		out := output(t, bundle(t, root, Plugin(root, DefaultRules...)))
		assert.Equal(t, 0, strings.Count(out, "require.main"))
		assert.Contains(t, out, "appenders-marker")
		assert.Contains(t, out, "log4js-core-marker")
		// Relative imports inside the patched module still resolve.
		assert.Contains(t, out, "stdout-appender")
	})

	t.Run("other appenders modules resolve normally", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t, "const a = require('./lib/appenders');\nconsole.log(a);\n")
		writeFiles(t, root, map[string]string{
			"src/lib/appenders.js": "module.exports = require.main === module;\n",
		})

		out := output(t, bundle(t, root, Plugin(root, DefaultRules...)))
		assert.Contains(t, out, "require.main")
	})

	t.Run("unreadable entry file fails the build", func(t *testing.T) {
		t.Parallel()
		root := setupProject(t, mainSrc)
		broken := Log4jsAppenders
		broken.EntryFile = "missing.js"

		result := bundle(t, root, Plugin(root, broken))
		require.NotEmpty(t, result.Errors)
		assert.Contains(t, result.Errors[0].Text, "cannot read")
		assert.Contains(t, result.Errors[0].Text, "missing.js")
	})
}

func TestModuleFor(t *testing.T) {
	t.Parallel()

	root := filepath.Join(string(filepath.Separator), "work", "project")
	lib := filepath.Join(root, "node_modules", "log4js", "lib")
	nested := filepath.Join(root, "node_modules", "x", "node_modules", "log4js", "lib")

	tests := []struct {
		name   string
		args   api.OnResolveArgs
		want   string
		wantOK bool
	}{
		{
			name:   "sibling import from log4js",
			args:   api.OnResolveArgs{Path: "./appenders", ResolveDir: lib},
			want:   "node_modules/log4js/lib/appenders",
			wantOK: true,
		},
		{
			name:   "trailing slash",
			args:   api.OnResolveArgs{Path: "./appenders/", ResolveDir: lib},
			want:   "node_modules/log4js/lib/appenders",
			wantOK: true,
		},
		{
			name:   "parent import",
			args:   api.OnResolveArgs{Path: "../lib/appenders", ResolveDir: lib},
			want:   "node_modules/log4js/lib/appenders",
			wantOK: true,
		},
		{
			name:   "log4js nested under another package",
			args:   api.OnResolveArgs{Path: "./appenders", ResolveDir: nested},
			want:   "node_modules/x/node_modules/log4js/lib/appenders",
			wantOK: true,
		},
		{
			name: "directory merely ending in node_modules",
			args: api.OnResolveArgs{Path: "./appenders", ResolveDir: filepath.Join(root, "my_node_modules", "log4js", "lib")},
		},
		{
			name: "file inside the module",
			args: api.OnResolveArgs{Path: "./appenders/stdout", ResolveDir: lib},
		},
		{
			name: "bare package import",
			args: api.OnResolveArgs{Path: "log4js/lib/appenders", ResolveDir: root},
		},
		{
			name: "no resolve dir",
			args: api.OnResolveArgs{Path: "./appenders"},
		},
		{
			name: "outside root",
			args: api.OnResolveArgs{Path: "./appenders", ResolveDir: filepath.Join(string(filepath.Separator), "elsewhere")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := moduleFor(root, Log4jsAppenders, tt.args)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

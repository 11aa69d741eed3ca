package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/andyballingall/bundle-stager/internal/fs"
	"github.com/andyballingall/bundle-stager/internal/validator"
)

const (
	// ConfigFile is the optional configuration file looked up in the project root.
	ConfigFile = "bstage.yml"

	NodeEnvVar       = "NODE_ENV"
	BackupRootEnvVar = "BSTAGE_BACKUP_ROOT"

	DefaultSourceDir  = "upstream"
	DefaultEntryPoint = "src/main.ts"
	DefaultOutfile    = "build/index.js"
	backupDirName     = "bstage-trash"
)

// DefaultAssets lists the paths staged from the source checkout into the project root,
// in staging order.
var DefaultAssets = []string{
	"autoload/coc",
	"autoload/health",
	"autoload/coc.vim",
	"bin",
	"data",
	"doc",
	"plugin",
}

// DefaultMinNode is the oldest node release a bundle is allowed to start on.
var DefaultMinNode = NodeVersion{Major: 12, Minor: 12}

//go:embed bstage.schema.json
var configSchema []byte

const configSchemaID = "https://bstage.example.com/bstage.schema.json"

var (
	schemaOnce      sync.Once
	schemaValidator validator.Validator
	schemaErr       error
)

type Env string

const (
	Development Env = "development"
	Production  Env = "production"
)

// NodeVersion is a node release expressed as major.minor.
type NodeVersion struct {
	Major int
	Minor int
}

func (v NodeVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseNodeVersion parses "major.minor". A leading "v" is accepted.
func ParseNodeVersion(s string) (NodeVersion, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) != 2 {
		return NodeVersion{}, &InvalidNodeVersionError{Value: s}
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 {
		return NodeVersion{}, &InvalidNodeVersionError{Value: s}
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return NodeVersion{}, &InvalidNodeVersionError{Value: s}
	}
	return NodeVersion{Major: major, Minor: minor}, nil
}

// FileConfig is the content of bstage.yml. Empty fields fall back to defaults.
type FileConfig struct {
	Source         string `yaml:"source"`
	EntryPoint     string `yaml:"entryPoint"`
	Outfile        string `yaml:"outfile"`
	BackupRoot     string `yaml:"backupRoot"`
	MinNodeVersion string `yaml:"minNodeVersion"`
}

// BuildConfig holds everything one run needs. It is resolved once and then only
// passed around by value.
type BuildConfig struct {
	RootDir     string // project root; staged assets land here
	SourceDir   string // nested upstream checkout
	EntryPoint  string
	Outfile     string
	BackupRoot  string
	Environment Env
	Watch       bool
	Revision    string
	Assets      []string
	MinNode     NodeVersion
}

// Minify reports whether the bundle is minified. Only production minifies.
func (c BuildConfig) Minify() bool {
	return c.Environment == Production
}

// SourceMap reports whether a source map is emitted. Only development emits one.
func (c BuildConfig) SourceMap() bool {
	return c.Environment == Development
}

// WithRevision returns a copy of c carrying the given build stamp.
func (c BuildConfig) WithRevision(rev string) BuildConfig {
	c.Revision = rev
	c.Assets = append([]string(nil), c.Assets...)
	return c
}

// Options carries the values supplied on the command line.
type Options struct {
	RootDir  string
	Watch    bool
	Resolver fs.PathResolver
}

// Resolve combines defaults, the optional config file and the environment into a BuildConfig.
func Resolve(opts Options, env fs.EnvProvider) (BuildConfig, error) {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = fs.NewPathResolver()
	}
	if env == nil {
		env = fs.NewEnvProvider()
	}

	rootArg := opts.RootDir
	if rootArg == "" {
		rootArg = "."
	}
	root, err := resolver.Abs(rootArg)
	if err != nil {
		return BuildConfig{}, &InvalidRootError{Path: rootArg, Wrapped: err}
	}
	info, err := os.Stat(root)
	if err != nil {
		return BuildConfig{}, &InvalidRootError{Path: root, Wrapped: err}
	}
	if !info.IsDir() {
		return BuildConfig{}, &InvalidRootError{Path: root}
	}

	fc, err := Load(root)
	if err != nil {
		return BuildConfig{}, err
	}

	minNode := DefaultMinNode
	if fc.MinNodeVersion != "" {
		if minNode, err = ParseNodeVersion(fc.MinNodeVersion); err != nil {
			return BuildConfig{}, err
		}
	}

	sourceDir := underRoot(root, orDefault(fc.Source, DefaultSourceDir))

	backupRoot := filepath.Join(os.TempDir(), backupDirName)
	if fc.BackupRoot != "" {
		backupRoot = underRoot(root, fc.BackupRoot)
	}
	if v := env.Get(BackupRootEnvVar); v != "" {
		backupRoot = underRoot(root, v)
	}

	cfg := BuildConfig{
		RootDir:     root,
		SourceDir:   sourceDir,
		EntryPoint:  underRoot(sourceDir, orDefault(fc.EntryPoint, DefaultEntryPoint)),
		Outfile:     underRoot(root, orDefault(fc.Outfile, DefaultOutfile)),
		BackupRoot:  backupRoot,
		Environment: Env(env.Get(NodeEnvVar)),
		Watch:       opts.Watch,
		Assets:      append([]string(nil), DefaultAssets...),
		MinNode:     minNode,
	}
	if err := checkBackupRoot(cfg); err != nil {
		return BuildConfig{}, err
	}
	return cfg, nil
}

// checkBackupRoot rejects a backup root whose removal at the start of a run would delete
// project content. It may not be or contain the project root, the source checkout, the
// outfile or an asset, nor lie inside the source checkout or a staged destination.
func checkBackupRoot(cfg BuildConfig) error {
	backup := filepath.Clean(cfg.BackupRoot)

	covered := []string{cfg.RootDir, cfg.SourceDir, cfg.Outfile}
	nested := []string{cfg.SourceDir}
	for _, a := range cfg.Assets {
		covered = append(covered, filepath.Join(cfg.RootDir, a), filepath.Join(cfg.SourceDir, a))
		nested = append(nested, filepath.Join(cfg.RootDir, a))
	}

	for _, p := range covered {
		if within(backup, p) {
			return &InvalidBackupRootError{Path: backup, Conflict: p}
		}
	}
	for _, p := range nested {
		if within(p, backup) {
			return &InvalidBackupRootError{Path: backup, Conflict: p, Inside: true}
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Load reads ConfigFile from root. A missing file yields an empty FileConfig.
func Load(root string) (FileConfig, error) {
	path := filepath.Join(root, ConfigFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return FileConfig{}, nil
	}
	if err != nil {
		return FileConfig{}, err
	}
	return Parse(path, data)
}

// Parse decodes and validates the content of a config file. path is used in errors only.
func Parse(path string, data []byte) (FileConfig, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return FileConfig{}, &InvalidYAMLError{Path: path, Wrapped: err}
	}
	if raw == nil {
		// empty file
		return FileConfig{}, nil
	}

	if err := validate(raw); err != nil {
		return FileConfig{}, &InvalidConfigError{Path: path, Wrapped: err}
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, &InvalidYAMLError{Path: path, Wrapped: err}
	}
	return fc, nil
}

// validate checks a decoded yaml document against the embedded configuration schema.
// The document is round-tripped through JSON so the validator sees JSON types only.
func validate(raw interface{}) error {
	schemaOnce.Do(func() {
		schemaValidator, schemaErr = validator.CompileBytes(validator.NewSanthoshCompiler(), configSchemaID, configSchema)
	})
	if schemaErr != nil {
		return fmt.Errorf("configuration schema: %w", schemaErr)
	}

	js, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	doc, err := validator.ParseJSON(strings.NewReader(string(js)))
	if err != nil {
		return err
	}
	return schemaValidator.Validate(doc)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func underRoot(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

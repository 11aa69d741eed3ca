// Package report renders the outcome of a bstage run.
package report

import (
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/andyballingall/bundle-stager/internal/bundle"
	"github.com/andyballingall/bundle-stager/internal/config"
	"github.com/andyballingall/bundle-stager/internal/stage"
)

// Reporter writes a Summary in some output format.
type Reporter interface {
	Write(w io.Writer, s *Summary) error
}

// Bundle describes the files esbuild produced.
type Bundle struct {
	Outfile        string
	Bytes          int64
	SourceMapBytes int64
	Inputs         int
	// Packages lists the distinct node_modules packages that ended up in the bundle.
	Packages []string
	Warnings int
}

// Summary is everything a reporter needs about one run.
type Summary struct {
	StartTime   time.Time
	EndTime     time.Time
	Environment config.Env
	Revision    string
	Bundle      Bundle
	Staged      []stage.Operation
	BackupRoot  string
}

// NewSummary collects the results of a build and staging run that ran from start to end.
func NewSummary(cfg config.BuildConfig, res *bundle.Result, staged []stage.Operation, start, end time.Time) *Summary {
	s := &Summary{
		StartTime:   start,
		EndTime:     end,
		Environment: cfg.Environment,
		Revision:    cfg.Revision,
		Staged:      staged,
		BackupRoot:  cfg.BackupRoot,
	}
	if res != nil {
		s.Bundle = ReadMetafile(res.Metafile)
		s.Bundle.Outfile = res.Outfile
		s.Bundle.Warnings = res.Warnings
	}
	return s
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// BackedUp returns the number of destinations that were moved into the backup root.
func (s *Summary) BackedUp() int {
	n := 0
	for _, op := range s.Staged {
		if op.BackedUp {
			n++
		}
	}
	return n
}

// ReadMetafile extracts output sizes and input statistics from an esbuild metafile.
// An empty or malformed metafile yields a zero Bundle.
func ReadMetafile(metafile string) Bundle {
	var b Bundle
	if !gjson.Valid(metafile) {
		return b
	}

	gjson.Get(metafile, "outputs").ForEach(func(key, value gjson.Result) bool {
		if strings.HasSuffix(key.String(), ".map") {
			b.SourceMapBytes += value.Get("bytes").Int()
		} else {
			b.Bytes += value.Get("bytes").Int()
		}
		return true
	})

	packages := make(map[string]bool)
	gjson.Get(metafile, "inputs").ForEach(func(key, _ gjson.Result) bool {
		b.Inputs++
		if p := packageOf(key.String()); p != "" {
			packages[p] = true
		}
		return true
	})

	for p := range packages {
		b.Packages = append(b.Packages, p)
	}
	sort.Strings(b.Packages)
	return b
}

// packageOf returns the package name of an input below node_modules, handling scopes.
func packageOf(input string) string {
	parts := strings.Split(filepath.ToSlash(input), "/")
	last := ""
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] != "node_modules" {
			continue
		}
		name := parts[i+1]
		if strings.HasPrefix(name, "@") && i+2 < len(parts) {
			name += "/" + parts[i+2]
		}
		last = name
	}
	return last
}

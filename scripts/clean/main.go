// Package main removes the bstage binary and its log file from the working directory.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// artefacts are the paths produced by scripts/build and by running bstage here.
var artefacts = []string{"bin", ".bstage.log"}

func main() {
	if !clean(os.Stdout, artefacts) {
		os.Exit(1)
	}
}

// clean removes every path that exists and reports whether all removals succeeded.
func clean(w io.Writer, paths []string) bool {
	ok := true
	for _, p := range paths {
		if _, err := os.Lstat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			_, _ = fmt.Fprintf(w, "❌ Failed to remove %s: %v\n", p, err)
			ok = false
			continue
		}
		_, _ = fmt.Fprintf(w, "✅ Removed %s\n", p)
	}
	return ok
}

// Package main prints the version bstage is built as: the nearest tag when there is one,
// otherwise dev followed by the short HEAD revision.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/andyballingall/bundle-stager/internal/repo"
)

func main() {
	ctx := context.Background()

	cmd := exec.CommandContext(ctx, "git", "describe", "--tags", "--dirty")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err == nil {
		fmt.Print(strings.TrimSpace(out.String()))
		return
	}

	rev, err := repo.NewCLIGitter().HeadRevision(ctx, ".")
	if err != nil {
		fmt.Print("dev")
		return
	}
	fmt.Print("dev-" + rev.Short(7))
}

package repo

import (
	"fmt"
	"strings"
)

// NotACheckoutError is returned when a directory has no .git entry of its own.
type NotACheckoutError struct {
	Dir string
}

func (e *NotACheckoutError) Error() string {
	return fmt.Sprintf("%s is not a git checkout", e.Dir)
}

// GitError reports a failed git invocation together with what git printed.
type GitError struct {
	Args    []string
	Output  string
	Wrapped error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed: %v", strings.Join(e.Args, " "), e.Wrapped)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += " (output: " + out + ")"
	}
	return msg
}

func (e *GitError) Unwrap() error { return e.Wrapped }

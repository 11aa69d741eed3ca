package bundle

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// BuildFailedError carries the esbuild errors of a failed build.
type BuildFailedError struct {
	Entry    string
	Messages []api.Message
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("bundling %s failed with %d error(s):\n%s",
		e.Entry, len(e.Messages), strings.Join(formatMessages(e.Messages, api.ErrorMessage), ""))
}

// ContextError is returned when esbuild rejects the build options.
type ContextError struct {
	Messages []api.Message
}

func (e *ContextError) Error() string {
	return "invalid bundle options:\n" + strings.Join(formatMessages(e.Messages, api.ErrorMessage), "")
}

func formatMessages(msgs []api.Message, kind api.MessageKind) []string {
	return api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: kind})
}

package app

import (
	"github.com/spf13/cobra"
)

func NewRestoreCmd(mgr Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Move the content displaced by the last build back into place",
		Long: `Restore undoes the staging step of the last build. Every asset that had previous
content is replaced by its backup; assets that were staged into an empty location are
left as they are. The bundle itself is not touched.`,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mgr.Restore(cmd.Context())
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"pdf-rag/internal/helper"
)

// NewIndexCmd creates the index command
func NewIndexCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Show the manifest of the current index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return userError(err)
			}
			store, closeStore, err := newStore(cmd.Context(), cfg)
			if err != nil {
				return userError(err)
			}
			defer closeStore()

			manifest, err := store.Manifest(cmd.Context())
			if err != nil {
				return userError(err)
			}
			helper.PrettyPrint(cmd.OutOrStdout(), manifest)
			return nil
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build outputs and records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts app.CleanOptions
			opts.Cache, _ = cmd.Flags().GetBool("cache")
			opts.All, _ = cmd.Flags().GetBool("all")
			return c.app.Clean(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolP("cache", "c", false, "Remove the local artifact cache instead")
	cmd.Flags().BoolP("all", "a", false, "Remove the whole .kiln directory")
	cmd.MarkFlagsMutuallyExclusive("cache", "all")

	return cmd
}

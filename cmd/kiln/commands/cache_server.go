package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

const defaultListenAddr = "127.0.0.1:7190"

func (c *CLI) newCacheServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache-server",
		Short: "Serve an artifact cache directory to remote builds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts app.ServeOptions
			opts.Listen, _ = cmd.Flags().GetString("listen")
			opts.Dir, _ = cmd.Flags().GetString("dir")
			opts.ReadOnly, _ = cmd.Flags().GetBool("read-only")
			opts.IdleTimeout, _ = cmd.Flags().GetDuration("idle-timeout")
			return c.app.ServeCache(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringP("listen", "l", defaultListenAddr, "Address to listen on")
	cmd.Flags().String("dir", "", "Cache directory (default: the workspace cache)")
	cmd.Flags().Bool("read-only", false, "Reject stores")
	cmd.Flags().Duration("idle-timeout", 0, "Stop after this long without requests")
	return cmd
}

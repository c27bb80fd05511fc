package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newTargetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the targets of the workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			showRuleKey, _ := cmd.Flags().GetBool("show-rulekey")
			return c.app.Targets(cmd.Context(), app.TargetsOptions{ShowRuleKey: showRuleKey})
		},
	}
	cmd.Flags().Bool("show-rulekey", false, "Compute and print the rule key of every target")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build the specified targets",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			opts := app.BuildOptions{Targets: args}
			opts.Mode = buildMode(cmd)
			opts.KeepGoing, _ = flags.GetBool("keep-going")
			opts.NoCache, _ = flags.GetBool("no-cache")
			opts.Concurrency, _ = flags.GetInt("concurrency")
			opts.StepTimeout, _ = flags.GetDuration("step-timeout")
			opts.HardCancel, _ = flags.GetBool("hard-cancel")
			opts.JustBuild, _ = flags.GetString("just-build")
			opts.BuildReport, _ = flags.GetString("build-report")
			opts.ShowOutput, _ = flags.GetBool("show-output")
			opts.ShowRuleKey, _ = flags.GetBool("show-rulekey")
			opts.StateDump, _ = flags.GetString("distributed-state-dump")
			opts.MetricsOut, _ = flags.GetString("metrics-out")
			opts.OutputMode, _ = flags.GetString("output-mode")
			opts.Watch, _ = flags.GetBool("watch")

			// If --ci is set, override output-mode to "linear"
			if ci, _ := flags.GetBool("ci"); ci {
				opts.OutputMode = "linear"
			}
			return c.app.Build(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.Bool("shallow", false, "Fetch or build only what the requested targets need")
	flags.Bool("deep", false, "Materialize the outputs of every rule in the closure")
	flags.Bool("populate-cache", false, "Use only cached artifacts and report the rest as unpopulated")
	cmd.MarkFlagsMutuallyExclusive("shallow", "deep", "populate-cache")

	flags.BoolP("keep-going", "k", false, "Keep building independent rules after a failure")
	flags.BoolP("no-cache", "n", false, "Ignore the artifact cache and build records")
	flags.IntP("concurrency", "j", 0, "Concurrency budget (default: number of CPUs)")
	flags.Duration("step-timeout", 0, "Fail a rule whose steps run longer than this")
	flags.Bool("hard-cancel", false, "Terminate running steps when the build is interrupted")
	flags.String("just-build", "", "Build only this target of the requested closure")
	_ = flags.MarkHidden("just-build")
	flags.String("build-report", "", "Write a JSON build report to this file")
	flags.Bool("show-output", false, "Print the output paths of the requested targets")
	flags.Bool("show-rulekey", false, "Print the rule keys of the requested targets")
	flags.String("distributed-state-dump", "", "Dump the target graph to this file, or build from it if it exists")
	flags.String("metrics-out", "", "Write Prometheus metrics to this textfile")
	flags.StringP("output-mode", "o", "auto", "Output mode: auto, tui, or linear")
	flags.Bool("ci", false, "Use linear output mode (shorthand for --output-mode=linear)")
	flags.BoolP("watch", "w", false, "Rebuild when files change")
	cmd.MarkFlagsMutuallyExclusive("watch", "distributed-state-dump")

	return cmd
}

// buildMode returns the mode named by the build-mode flags, or "" to keep the workspace default.
func buildMode(cmd *cobra.Command) string {
	for flag, mode := range map[string]domain.BuildMode{
		"shallow":        domain.ModeShallow,
		"deep":           domain.ModeDeep,
		"populate-cache": domain.ModePopulate,
	} {
		if set, _ := cmd.Flags().GetBool(flag); set {
			return mode.String()
		}
	}
	return ""
}

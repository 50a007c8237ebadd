package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/ripple/internal/app"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the units that must be recompiled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Plan(cmd.Context(), planOptions(cmd))
		},
	}
	addPlanFlags(cmd)
	cmd.Flags().Bool("stats", false, "Print span counts and durations after the plan")
	return cmd
}

func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("commit", "c", false, "Store the current hashes so the next plan starts from here")
	cmd.Flags().BoolP("why", "w", false, "Explain why each dependent unit was invalidated")
	cmd.Flags().Bool("json", false, "Print the plan as JSON")
}

func planOptions(cmd *cobra.Command) app.PlanOptions {
	commit, _ := cmd.Flags().GetBool("commit")
	why, _ := cmd.Flags().GetBool("why")
	asJSON, _ := cmd.Flags().GetBool("json")
	stats, _ := cmd.Flags().GetBool("stats")
	return app.PlanOptions{
		Commit: commit,
		Why:    why,
		JSON:   asJSON,
		Stats:  stats,
	}
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/ripple/internal/app"
)

func (c *CLI) newMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark [units...]",
		Short: "Invalidate units or external paths and print what follows",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			externals, _ := cmd.Flags().GetStringSlice("external")
			if len(args) == 0 && len(externals) == 0 {
				_ = cmd.Help()
				return nil
			}
			why, _ := cmd.Flags().GetBool("why")
			asJSON, _ := cmd.Flags().GetBool("json")

			return c.app.Mark(cmd.Context(), app.MarkOptions{
				Units:     args,
				Externals: externals,
				Why:       why,
				JSON:      asJSON,
			})
		},
	}
	cmd.Flags().StringSliceP("external", "e", nil, "External path whose dependents to invalidate (repeatable)")
	cmd.Flags().BoolP("why", "w", false, "Explain why each unit was invalidated")
	cmd.Flags().Bool("json", false, "Print the marked units as JSON")
	return cmd
}

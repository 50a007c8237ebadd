package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/ripple/internal/app"
)

func (c *CLI) newDotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Write the unit dependency graph in DOT format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			mark, _ := cmd.Flags().GetStringSlice("mark")
			return c.app.Dot(cmd.Context(), app.DotOptions{Output: output, Mark: mark})
		},
	}
	cmd.Flags().StringP("output", "o", "", `File to write; "-" for stdout, default a new file in the state directory`)
	cmd.Flags().StringSlice("mark", nil, "Units to invalidate before rendering (repeatable)")
	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/ripple/internal/app"
)

func (c *CLI) newExternalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "externals",
		Short: "List the external paths units depend on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return c.app.Externals(cmd.Context(), app.ExternalsOptions{JSON: asJSON})
		},
	}
	cmd.Flags().Bool("json", false, "Print the list as JSON")
	return cmd
}

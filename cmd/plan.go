package cmd

import "github.com/spf13/cobra"

var planFlags runFlags

func init() {
	planFlags.register(planCmd)
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what export would purge and write, without touching any file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, &planFlags, true)
	},
}

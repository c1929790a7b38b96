package cmd

import "github.com/spf13/cobra"

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage saved views",
}

var viewSaveCmd = &cobra.Command{
	Use:   "save <name> <sql>",
	Short: "Create or replace a view from SQL",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.SaveView(args[0], args[1]))
	},
}

var viewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.Views())
	},
}

var viewDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.DeleteView(args[0]))
	},
}

func init() {
	viewCmd.AddCommand(viewSaveCmd, viewListCmd, viewDeleteCmd)
	rootCmd.AddCommand(viewCmd)
}

package cmd

import "github.com/spf13/cobra"

var loadName string

var loadCmd = &cobra.Command{
	Use:   "load <file.csv>",
	Short: "Ingest a CSV file into a new table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.LoadCSV(args[0], loadName))
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List loaded tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.Tables())
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <table>",
	Short: "Drop a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.DropTable(args[0]))
	},
}

func init() {
	loadCmd.Flags().StringVar(&loadName, "name", "", "table name (defaults to sanitized file name)")
	rootCmd.AddCommand(loadCmd, tablesCmd, dropCmd)
}

package cmd

import "github.com/spf13/cobra"

var (
	queryLimit  int
	queryOffset int
)

var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Execute SQL with pagination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.ExecuteQuery(args[0], queryLimit, queryOffset))
	},
}

var headCmd = &cobra.Command{
	Use:   "head <table>",
	Short: "Show the first rows of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.TableData(args[0], queryLimit, queryOffset))
	},
}

var exportSQL bool

var exportCmd = &cobra.Command{
	Use:   "export <table-or-sql> <output.csv>",
	Short: "Export a table or query result to CSV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.ExportCSV(args[0], args[1], exportSQL))
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "page size (0 uses the configured default)")
	queryCmd.Flags().IntVar(&queryOffset, "offset", 0, "page offset")
	headCmd.Flags().IntVar(&queryLimit, "limit", 20, "row count")
	headCmd.Flags().IntVar(&queryOffset, "offset", 0, "row offset")
	exportCmd.Flags().BoolVar(&exportSQL, "sql", false, "treat the first argument as a SQL query")
	rootCmd.AddCommand(queryCmd, headCmd, exportCmd)
}

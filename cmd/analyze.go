package cmd

import "github.com/spf13/cobra"

var (
	analyzeRefresh bool
	analyzeSQL     string
	distBins       int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <table>",
	Short: "Compute whole-table statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.AnalyzeTable(args[0], analyzeRefresh))
	},
}

var columnCmd = &cobra.Command{
	Use:   "column <table> <column>",
	Short: "Profile a single column, or a column of an ad-hoc query with --sql",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeSQL != "" {
			return printResponse(rpc.AnalyzeQueryColumn(analyzeSQL, args[len(args)-1]))
		}
		if len(args) != 2 {
			return cmd.Usage()
		}
		return printResponse(rpc.AnalyzeColumn(args[0], args[1]))
	},
}

var missingCmd = &cobra.Command{
	Use:   "missing <table>",
	Short: "Report missing values per column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.MissingReport(args[0]))
	},
}

var numericCmd = &cobra.Command{
	Use:   "numeric <table>",
	Short: "Summarize numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.NumericSummary(args[0]))
	},
}

var distributionCmd = &cobra.Command{
	Use:   "distribution <table> <column>",
	Short: "Histogram for numeric columns, frequency table otherwise",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printResponse(rpc.ColumnDistribution(args[0], args[1], distBins))
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeRefresh, "refresh", false, "recompute even if cached")
	columnCmd.Flags().StringVar(&analyzeSQL, "sql", "", "profile a column of this query instead of a table")
	distributionCmd.Flags().IntVar(&distBins, "bins", 20, "histogram bucket count")
	rootCmd.AddCommand(analyzeCmd, columnCmd, missingCmd, numericCmd, distributionCmd)
}

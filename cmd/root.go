// Package cmd wires the csvscope CLI. Every subcommand starts the RPC
// client, talks to the backend worker through it, and prints the
// response data as JSON.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/client"
	"github.com/csvscope/csvscope/pkg/config"
	"github.com/csvscope/csvscope/pkg/logging"
	"github.com/csvscope/csvscope/pkg/protocol"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
	rpc     *client.Client
)

var rootCmd = &cobra.Command{
	Use:          "csvscope",
	Short:        "Inspect and profile delimited-text datasets with SQL",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Env, cfg.LogLevel)
		if err != nil {
			return err
		}
		rpc = client.New(cfg, logger)
		return rpc.Start()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if rpc != nil {
			if err := rpc.Stop(); err != nil {
				return err
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// printResponse renders a response's data as indented JSON, or fails
// the command with the response error.
func printResponse(resp protocol.Response) error {
	if !resp.Success {
		return fmt.Errorf("request %s failed: %s", resp.RequestID, resp.Error)
	}
	out, err := json.MarshalIndent(resp.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

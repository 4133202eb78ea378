package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/logger"
	"github.com/jingkaihe/skillhub/pkg/mcpserve"
	"github.com/jingkaihe/skillhub/pkg/presenter"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the registry as an MCP stdio server",
	Long: `Expose skill resolution as MCP tools over stdio so that agent
runtimes can query the registry directly.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		// stdout carries the MCP protocol, keep logs off it
		logger.SetLogOutput(os.Stderr)

		eng, err := newEngine(ctx)
		if err != nil {
			presenter.Error(err, "Failed to build registry")
			os.Exit(1)
		}
		defer eng.Close()

		if err := eng.Watch(ctx); err != nil {
			presenter.Error(err, "Failed to start watcher")
			os.Exit(1)
		}

		if err := mcpserve.NewServer(eng).ServeStdio(); err != nil {
			presenter.Error(err, "MCP server error")
			os.Exit(1)
		}
	},
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillhub/pkg/api"
	"github.com/jingkaihe/skillhub/pkg/presenter"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry over HTTP",
	Long: `Serve starts an HTTP API backed by the registry. Unless --no-watch
is set, the skill tree is watched and the registry hot-reloads on
changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		eng, err := newEngine(ctx)
		if err != nil {
			presenter.Error(err, "Failed to build registry")
			os.Exit(1)
		}
		defer eng.Close()

		noWatch, _ := cmd.Flags().GetBool("no-watch")
		if !noWatch {
			if err := eng.Watch(ctx); err != nil {
				presenter.Error(err, "Failed to start watcher")
				os.Exit(1)
			}
		}

		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")

		server, err := api.NewServer(eng, &api.ServerConfig{Host: host, Port: port})
		if err != nil {
			presenter.Error(err, "Failed to create server")
			os.Exit(1)
		}

		if err := server.Start(ctx); err != nil {
			presenter.Error(err, "Server error")
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to bind to")
	serveCmd.Flags().Bool("no-watch", false, "Disable filesystem watching")
}

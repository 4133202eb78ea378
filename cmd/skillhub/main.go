package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillhub/pkg/engine"
	"github.com/jingkaihe/skillhub/pkg/logger"
)

func init() {
	viper.SetEnvPrefix("SKILLHUB")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillhub")
	viper.AddConfigPath(".")

	// Config file is optional.
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillhub",
	Short: "Skill discovery and matching engine",
	Long: `Skillhub indexes skill and agent definitions from a directory tree
and resolves match requests (language, categories, keywords) to the
best-fit skills. It serves queries in-process, over HTTP, or as an MCP
stdio server, with hot reload as the tree changes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			return err
		}
		logger.SetLogFormat(viper.GetString("log_format"))
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// newEngine builds an engine from the resolved configuration.
func newEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := engine.ConfigFromViper()
	if err != nil {
		return nil, err
	}
	return engine.New(ctx, cfg)
}

func main() {
	rootCmd.PersistentFlags().String("root", ".", "Skill tree root containing agents/ and skills/")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(withTracing(listCmd))
	rootCmd.AddCommand(withTracing(resolveCmd))
	rootCmd.AddCommand(withTracing(validateCmd))
	rootCmd.AddCommand(withTracing(serveCmd))
	rootCmd.AddCommand(withTracing(mcpCmd))
	rootCmd.AddCommand(withTracing(schemaCmd))
	rootCmd.AddCommand(withTracing(versionCmd))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := initTracing(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize tracing: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.G(ctx).WithError(err).Debug("Tracing shutdown failed")
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

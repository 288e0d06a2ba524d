package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/tce-search/internal/bootstrap"
	"github.com/kirillkom/tce-search/internal/config"
	"github.com/kirillkom/tce-search/internal/observability/logging"
)

var (
	domainsFile string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:          "tcectl",
	Short:        "Search and display past teacher certification exam questions",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := logLevel
		if level == "" {
			level = config.Load().LogLevel
		}
		// stdout carries command output and MCP frames.
		slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "tcectl", level))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&domainsFile, "domains", "", "Path to a YAML domain catalog (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func newApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg := config.Load()
	if domainsFile != "" {
		cfg.DomainsFile = domainsFile
	}
	app, err := bootstrap.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}

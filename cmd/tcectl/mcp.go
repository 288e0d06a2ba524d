package main

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/tce-search/internal/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve exam search tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		return mcpadapter.NewServer(app.ExamUC, app.Sessions).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

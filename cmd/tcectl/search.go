package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

var (
	searchDomain string
	searchMode   string
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "List the years whose questions match QUERY",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := domain.ParseSearchMode(searchMode)
		if err != nil {
			return err
		}
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sess := app.Sessions.Create()
		rs, err := app.ExamUC.Search(cmd.Context(), sess, searchDomain, mode, strings.Join(args, " "))
		if domain.IsKind(err, domain.ErrNoResults) {
			fmt.Fprintln(cmd.OutOrStdout(), err.Error())
			return nil
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d result(s)\n", rs.Domain, len(rs.Years))
		for _, year := range rs.Years {
			fmt.Fprintln(out, year)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchDomain, "domain", "d", "Syntax", "Subject domain")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "keywords", "Search mode: year, keywords, text")
	rootCmd.AddCommand(searchCmd)
}

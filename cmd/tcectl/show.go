package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

var (
	showDomain string
	showYear   string
	showOutput string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the keywords of one year's question and save its image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		sess := app.Sessions.Create()
		if _, err := app.ExamUC.Search(cmd.Context(), sess, showDomain, domain.SearchByYear, showYear); err != nil {
			return err
		}
		if err := app.ExamUC.Select(sess, showDomain, showYear); err != nil {
			return err
		}
		item, err := app.ExamUC.Show(cmd.Context(), sess, showDomain)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\nKeywords: %s\n", item.Domain, item.Year, item.Keywords)
		if item.Text != "" {
			fmt.Fprintln(out, item.Text)
		}
		fmt.Fprintf(out, "Image: %s (%d bytes)\n", item.Image.Locator, item.Image.Size)

		if showOutput != "" {
			if err := os.WriteFile(showOutput, item.Image.Data, 0o644); err != nil {
				return fmt.Errorf("write image: %w", err)
			}
			fmt.Fprintf(out, "Saved to %s\n", showOutput)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVarP(&showDomain, "domain", "d", "Syntax", "Subject domain")
	showCmd.Flags().StringVarP(&showYear, "year", "y", "", "Exact year value as listed by search")
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "", "Write the question image to this file")
	_ = showCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(showCmd)
}

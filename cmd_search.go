package main

import (
	"fmt"
	"strings"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/service"

	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		notebook  string
		vector    bool
		limit     int
		minScore  float64
		noSources bool
		noNotes   bool
		allBooks  bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search sources and notes",
		Example: `  cosmiq search "transformer attention"
  cosmiq search --vector --limit 10 "how do the authors evaluate robustness"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noSources && noNotes {
				return fmt.Errorf("--no-sources and --no-notes leave nothing to search")
			}
			client, err := a.backend()
			if err != nil {
				return err
			}
			nb := ""
			if !allBooks {
				if nb, err = a.notebook(notebook); err != nil {
					return err
				}
			}

			req := api.NewSearchRequest(strings.Join(args, " "), nb)
			if vector {
				req.Type = api.SearchVector
			}
			req.Limit = limit
			req.MinimumScore = minScore
			req.SearchSources = !noSources
			req.SearchNotes = !noNotes

			resp, err := client.Search(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("searching: %w", err)
			}
			hits := service.NormalizeSearchResults(resp.Results, nb)
			if a.format != display.FormatTable {
				return a.print(resp, nil)
			}

			display.Header(fmt.Sprintf("Results for %q (%d)", req.Query, len(hits)))
			if len(hits) == 0 {
				display.Warn("No matches.")
				return nil
			}
			for i, h := range hits {
				icon := "📄"
				if h.Type == "note" {
					icon = "📝"
				}
				fmt.Fprintf(display.Out, "\n  %s %s%s%s  %s%.2f%s\n", icon, display.Bold, h.Title, display.Reset, display.Dim, h.Score, display.Reset)
				fmt.Fprintf(display.Out, "    %s[%d] %s%s\n", display.Dim, i+1, h.TargetID, display.Reset)
				if h.Excerpt != "" {
					fmt.Fprintf(display.Out, "    %s\n", h.Excerpt)
				}
			}
			fmt.Fprintln(display.Out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&notebook, "notebook", "n", "", "notebook id or URL (default: configured notebook)")
	cmd.Flags().BoolVar(&allBooks, "all", false, "search every notebook")
	cmd.Flags().BoolVar(&vector, "vector", false, "use vector search instead of text search")
	cmd.Flags().IntVarP(&limit, "limit", "l", 100, "maximum number of results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0.2, "minimum score for vector search")
	cmd.Flags().BoolVar(&noSources, "no-sources", false, "skip sources")
	cmd.Flags().BoolVar(&noNotes, "no-notes", false, "skip notes")
	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// booksCmd represents the books command
var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List the stored library",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		books, err := e.feature.Service().Books(context.Background())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ASIN\tTITLE\tAUTHOR\tHIGHLIGHTS")
		for _, b := range books {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				b.Book.ASIN, b.Book.Title, b.Book.Author, b.HighlightCount)
		}
		return w.Flush()
	},
}

// highlightsCmd represents the highlights command
var highlightsCmd = &cobra.Command{
	Use:   "highlights <asin>",
	Short: "Show the highlights of one book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		highlights, err := e.feature.Service().Highlights(context.Background(), args[0])
		if err != nil {
			return err
		}

		for _, h := range highlights {
			if h.IsHidden {
				continue
			}
			marker := ""
			if h.Location != "" {
				marker = fmt.Sprintf(" (loc %s)", h.Location)
			}
			fmt.Printf("- %s%s\n", h.Text, marker)
			if h.Note != "" {
				fmt.Printf("  note: %s\n", h.Note)
			}
		}
		return nil
	},
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search highlight text and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		results, err := e.feature.Service().Search(context.Background(), args[0], "")
		if err != nil {
			return err
		}

		for _, r := range results {
			fmt.Printf("%s — %s\n  %s\n", r.Book.Title, r.Book.Author, r.Highlight.Text)
		}
		if len(results) == 0 {
			fmt.Println("no matches")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(booksCmd)
	RootCmd.AddCommand(highlightsCmd)
	RootCmd.AddCommand(searchCmd)
}

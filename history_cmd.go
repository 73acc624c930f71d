package main

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/lingo/internal/api"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent translations served by the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := c.History(cmd.Context(), historyLimit)
			if err != nil {
				return fmt.Errorf("unable to fetch history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No translations yet.")
				return nil
			}
			return renderMarkdown(cmd.OutOrStdout(), historyTable(entries))
		},
	}
)

func historyTable(entries []api.HistoryEntry) string {
	var b strings.Builder
	b.WriteString("| When | From | To | Original | Translation |\n| --- | --- | --- | --- | --- |\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			humanize.Time(e.CreatedAt),
			e.SourceLang,
			e.TargetLang,
			cell(e.OriginalText),
			cell(e.TranslatedText),
		)
	}
	return b.String()
}

// cell flattens s into a single short table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	return truncate.StringWithTail(s, 40, "…")
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of translations to show")
}

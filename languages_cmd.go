package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	offline bool

	languagesCmd = &cobra.Command{
		Use:     "languages",
		Aliases: []string{"langs"},
		Short:   "List the languages lingo can translate into",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := languages.Sorted()
			if !offline {
				c, err := newClient(serverURL, timeout)
				if err != nil {
					return err
				}
				var m map[string]string
				if err = checkBackend(cmd.Context(), c); err == nil {
					m, err = c.Languages(cmd.Context())
				}
				if err != nil {
					log.Warn("Using built-in language list", "error", err)
				} else {
					list = languages.SortedFrom(m)
				}
			}

			var b strings.Builder
			b.WriteString("| Code | Language |\n| --- | --- |\n")
			for _, l := range list {
				fmt.Fprintf(&b, "| `%s` | %s |\n", l.Code, l.Name)
			}
			return renderMarkdown(cmd.OutOrStdout(), b.String())
		},
	}
)

// renderMarkdown writes md through glamour, using the plain style when w is
// not a terminal.
func renderMarkdown(w io.Writer, md string) error {
	style := glamour.WithAutoStyle()
	width := 80
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		style = glamour.WithStandardStyle(styles.NoTTYStyle)
	} else if tw, _, err := term.GetSize(int(f.Fd())); err == nil {
		width = min(tw, 120)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		style,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("unable to render markdown: %w", err)
	}
	if _, err := fmt.Fprint(w, out); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func init() {
	languagesCmd.Flags().BoolVar(&offline, "offline", false, "list the built-in table without asking the backend")
}

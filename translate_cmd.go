package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/api"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	sourceLang string
	speakOut   bool

	translateCmd = &cobra.Command{
		Use:   "translate [TEXT|-]",
		Short: "Translate text once and print the result",
		Long: paragraph(fmt.Sprintf("\n%s text through the backend without starting the TUI. Text is read from stdin when it is a pipe or when the argument is -.",
			keyword("Translate"))),
		Example: paragraph("lingo translate 'bonjour tout le monde'\necho hola | lingo translate -t de"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := translateInput(args)
			if err != nil {
				return err
			}
			c, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			return runTranslate(cmd.Context(), c, text, cmd.OutOrStdout())
		},
	}
)

func translateInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if len(args) == 0 {
		if yes, err := stdinIsPipe(); err != nil {
			return "", err
		} else if !yes {
			return "", errors.New("nothing to translate: pass TEXT or pipe it on stdin")
		}
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	return string(b), nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func runTranslate(ctx context.Context, c *api.Client, text string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := c.Translate(ctx, api.TranslateRequest{
		Text:       text,
		TargetLang: targetLang,
		SourceLang: api.StringPtr(languages.Normalize(sourceLang)),
	})
	if err != nil {
		return fmt.Errorf("translation service error: %w", err)
	}
	if !resp.Success {
		msg := resp.ErrorMessage()
		if msg == "" {
			msg = "Unknown error"
		}
		return fmt.Errorf("translation error: %s", msg)
	}

	// Only decorate output meant for a person.
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		from := resp.DetectedLanguageName
		if from == "" {
			from = "auto"
		}
		header := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("%s → %s", from, resp.TargetLanguageName))
		if _, err := fmt.Fprintln(w, header); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(resp.TranslatedText, "\n")); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}

	if speakOut {
		// Whatever the backend is playing goes first.
		if err := c.StopAudio(ctx); err != nil {
			log.Warn("unable to stop playback", "error", err)
		}
		sp, err := c.Speak(ctx, resp.TranslatedText, resp.TargetLanguage)
		if err != nil {
			return fmt.Errorf("speech service error: %w", err)
		}
		if !sp.Success {
			return errors.New("speech failed")
		}
	}
	return nil
}

func init() {
	translateCmd.Flags().StringVarP(&sourceLang, "from", "f", "", "source language code (detected when empty)")
	translateCmd.Flags().BoolVar(&speakOut, "speak", false, "read the translation aloud on the backend")
}

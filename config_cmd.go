package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# backend base URL
server: "http://127.0.0.1:5000"
# initially selected target language
target_lang: "en"
# quiet period after the last keystroke before detection runs
debounce: "500ms"
# per-request timeout, 0 waits forever
timeout: "0s"
# mouse support
mouse: false

# Backend settings (lingo serve)
serve:
  # listen address
  addr: "127.0.0.1:5000"
  # translation engine: libretranslate or openai
  engine: "libretranslate"

  libretranslate:
    url: "http://127.0.0.1:5001"
    # api_key: ""

  openai:
    # api_key is read from OPENAI_API_KEY when unset
    # api_key: ""
    model: "gpt-4o-mini"
    # base_url: ""

  detect:
    # restrict detection to these codes, empty means every language
    # languages: ["en", "es", "fr", "de"]
    # minimum confidence (0.0 - 1.0) before a language is reported
    min_confidence: 0.0
    # refuse to answer when the two likeliest languages are closer than this
    min_distance: 0.0
    # load every language model on start instead of on first use
    preload: false

  breaker:
    # consecutive engine failures before translation is paused
    failures: 5
    # how long the breaker stays open before trying the engine again
    timeout: "30s"

  speech:
    # speak through gtts-cli and ffmpeg on the server's sound device
    enabled: true
    slow: false
    # gTTS requests per minute
    rpm: 50

  cache:
    # in-memory cache for translations and audio, in MB
    memory_size: 64
    # on-disk audio cache, empty disables it
    dir: "~/.cache/lingo"
    # on-disk cache size, in MB
    max_size: 100
    # zstd level for cached audio, 0 stores it uncompressed
    compression: 3
    # entries older than this are dropped, 0 keeps them forever
    ttl: "168h"

  history:
    # SQLite log of served translations, disabled unless set
    # path: "~/.local/share/lingo/history.db"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the lingo config file",
	Long:    paragraph(fmt.Sprintf("\n%s the lingo config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("lingo config\nlingo config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Lingo", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}

// Package main provides the entry point for the lingo CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/api"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/dgnsrekt/lingo/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	serverURL  string
	targetLang string
	debounce   time.Duration
	timeout    time.Duration
	mouse      bool

	rootCmd = &cobra.Command{
		Use:   "lingo",
		Short: "Translate text as you type, right in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nTranslate text %s, right in the terminal.", keyword("as you type")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOptions()
		},
		RunE: execute,
	}
)

func validateOptions() error {
	// grab config values from Viper
	serverURL = viper.GetString("server")
	targetLang = viper.GetString("target_lang")
	debounce = viper.GetDuration("debounce")
	timeout = viper.GetDuration("timeout")
	mouse = viper.GetBool("mouse")

	if serverURL == "" {
		serverURL = api.DefaultBaseURL
	}
	targetLang = languages.Normalize(targetLang)
	if !languages.Valid(targetLang) {
		return fmt.Errorf("unsupported target language: %q", viper.GetString("target_lang"))
	}
	if debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", debounce)
	}
	if timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", timeout)
	}
	return nil
}

func execute(*cobra.Command, []string) error {
	return runTUI()
}

// healthTimeout bounds the reachability check made before talking to the
// backend.
const healthTimeout = 3 * time.Second

// newClient builds the backend client shared by the TUI and the one-shot
// commands.
func newClient(baseURL string, timeout time.Duration) (*api.Client, error) {
	c, err := api.NewClient(baseURL, api.WithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("unable to create client: %w", err)
	}
	return c, nil
}

// checkBackend reports whether the backend answers its health endpoint.
func checkBackend(ctx context.Context, c *api.Client) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := c.Health(ctx); err != nil {
		return fmt.Errorf("backend unreachable at %s, is `lingo serve` running? %w", c.BaseURL(), err)
	}
	return nil
}

// connect returns a client for the configured backend once it answers.
func connect(ctx context.Context) (*api.Client, error) {
	c, err := newClient(serverURL, timeout)
	if err != nil {
		return nil, err
	}
	if err := checkBackend(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// tuiConfig merges flags and the config file with LINGO_* environment
// variables, which take precedence.
func tuiConfig() (ui.Config, error) {
	cfg := ui.Config{
		ServerURL:      serverURL,
		TargetLang:     targetLang,
		Debounce:       debounce,
		Timeout:        timeout,
		FetchLanguages: true,
		EnableMouse:    mouse,
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %v", err)
	}

	if cfg.ServerURL == "" {
		cfg.ServerURL = api.DefaultBaseURL
	}
	raw := cfg.TargetLang
	cfg.TargetLang = languages.Normalize(raw)
	if !languages.Valid(cfg.TargetLang) {
		return cfg, fmt.Errorf("unsupported target language: %q", raw)
	}
	if cfg.Debounce < 0 {
		return cfg, fmt.Errorf("debounce must not be negative, got %s", cfg.Debounce)
	}
	if cfg.Timeout < 0 {
		return cfg, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	return cfg, nil
}

func runTUI() error {
	cfg, err := tuiConfig()
	if err != nil {
		return err
	}

	client, err := newClient(cfg.ServerURL, cfg.Timeout)
	if err != nil {
		return err
	}
	// The TUI reports failed requests itself, so a missing backend is only
	// logged.
	if err := checkBackend(context.Background(), client); err != nil {
		log.Warn("Starting without a backend", "error", err)
	}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, client).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "S", api.DefaultBaseURL, "backend base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "per-request timeout (0 waits forever)")
	rootCmd.PersistentFlags().StringVarP(&targetLang, "target", "t", languages.DefaultCode, "target language code")
	rootCmd.Flags().DurationVarP(&debounce, "debounce", "d", ui.DefaultDebounce, "quiet period before the source text is detected")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("target_lang", rootCmd.PersistentFlags().Lookup("target"))
	_ = viper.BindPFlag("debounce", rootCmd.Flags().Lookup("debounce"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("server", api.DefaultBaseURL)
	viper.SetDefault("target_lang", languages.DefaultCode)
	viper.SetDefault("debounce", ui.DefaultDebounce)
	viper.SetDefault("timeout", 0)

	rootCmd.AddCommand(configCmd, manCmd, serveCmd, translateCmd, languagesCmd, historyCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "lingo")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "lingo")}, dirs...)
	}

	if c := os.Getenv("LINGO_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("lingo")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("lingo")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "lingo.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

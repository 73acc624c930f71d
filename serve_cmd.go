package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/audio"
	"github.com/dgnsrekt/lingo/internal/cache"
	"github.com/dgnsrekt/lingo/internal/detect"
	"github.com/dgnsrekt/lingo/internal/history"
	"github.com/dgnsrekt/lingo/internal/server"
	"github.com/dgnsrekt/lingo/internal/speech"
	"github.com/dgnsrekt/lingo/internal/translate"
	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	engineLibreTranslate = "libretranslate"
	engineOpenAI         = "openai"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the translation backend",
	Long: paragraph(fmt.Sprintf("\n%s the backend the TUI talks to: language detection, translation through LibreTranslate or OpenAI, and speech played on this machine's sound device.",
		keyword("Run"))),
	Example: paragraph("lingo serve\nlingo serve --addr :8080 --engine openai"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if os.Getenv("LINGO_DEBUG") == "" {
			log.SetOutput(os.Stderr)
			log.SetLevel(log.InfoLevel)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := newBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Close() //nolint:errcheck

		watchConfig()
		return b.server.ListenAndServe(ctx, viper.GetString("serve.addr"))
	},
}

// backend owns everything serve opens, so it can all be closed together.
type backend struct {
	server  *server.Server
	cache   *cache.Store
	speaker *speech.Speaker
	history *history.Store
}

// healthChecker is implemented by engines that can be reached ahead of the
// first translation.
type healthChecker interface {
	CheckHealth(ctx context.Context) error
}

func newBackend(ctx context.Context) (*backend, error) {
	b := &backend{}
	ok := false
	defer func() {
		if !ok {
			_ = b.Close()
		}
	}()

	store, err := openCache()
	if err != nil {
		return nil, err
	}
	b.cache = store

	engine, err := newEngine()
	if err != nil {
		return nil, err
	}
	if err := checkEngine(ctx, engine); err != nil {
		log.Warn("Translation engine unreachable, requests will fail until it is up", "engine", engine.Name(), "error", err)
	}
	translator := translate.NewService(engine,
		translate.WithCache(store),
		translate.WithBreakerSettings(breakerSettings(engine.Name())),
	)

	cfg := server.Config{
		Detector:   detect.New(detectOptions()...),
		Translator: translator,
	}

	if viper.GetBool("serve.speech.enabled") {
		gtts := speech.NewGTTS(speech.GTTSConfig{
			Slow:              viper.GetBool("serve.speech.slow"),
			RequestsPerMinute: viper.GetInt("serve.speech.rpm"),
		})
		if err := gtts.Validate(); err != nil {
			log.Warn("Speech disabled", "error", err)
		} else {
			b.speaker = speech.NewSpeaker(gtts, audio.NewLazy(audio.DefaultConfig()), store)
			cfg.Speaker = b.speaker
		}
	}

	if path := viper.GetString("serve.history.path"); path != "" {
		b.history, err = history.Open(path)
		if err != nil {
			return nil, err
		}
		cfg.History = b.history
	}

	b.server, err = server.New(cfg)
	if err != nil {
		return nil, err
	}
	ok = true
	return b, nil
}

func (b *backend) Close() error {
	var errs []error
	if b.speaker != nil {
		errs = append(errs, b.speaker.Close())
	}
	if b.history != nil {
		errs = append(errs, b.history.Close())
	}
	if b.cache != nil {
		for tier, s := range b.cache.TierStats() {
			log.Debug("cache stats",
				"tier", tier,
				"items", s.Items,
				"size", humanize.IBytes(uint64(s.Size)), //nolint:gosec
				"hit_rate", fmt.Sprintf("%.2f", s.HitRate()),
			)
		}
		errs = append(errs, b.cache.Close())
	}
	return errors.Join(errs...)
}

// checkEngine reaches the engine once with a short deadline. Engines that
// cannot be checked are assumed up.
func checkEngine(ctx context.Context, engine translate.Engine) error {
	hc, ok := engine.(healthChecker)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return hc.CheckHealth(ctx)
}

func detectOptions() []detect.Option {
	var opts []detect.Option
	if codes := viper.GetStringSlice("serve.detect.languages"); len(codes) > 0 {
		opts = append(opts, detect.WithLanguages(codes...))
	}
	if d := viper.GetFloat64("serve.detect.min_distance"); d > 0 {
		opts = append(opts, detect.WithMinimumRelativeDistance(d))
	}
	if c := viper.GetFloat64("serve.detect.min_confidence"); c > 0 {
		opts = append(opts, detect.WithMinimumConfidence(c))
	}
	if viper.GetBool("serve.detect.preload") {
		opts = append(opts, detect.WithPreloadedModels())
	}
	return opts
}

// breakerSettings starts from the defaults and applies serve.breaker.*.
func breakerSettings(name string) gobreaker.Settings {
	st := translate.DefaultBreakerSettings(name)
	if n := viper.GetUint32("serve.breaker.failures"); n > 0 {
		st.ReadyToTrip = func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= n
		}
	}
	if d := viper.GetDuration("serve.breaker.timeout"); d > 0 {
		st.Timeout = d
	}
	return st
}

func openCache() (*cache.Store, error) {
	cfg := cache.Config{
		MemoryCapacity:   viper.GetInt64("serve.cache.memory_size") * humanize.MiByte,
		DiskPath:         viper.GetString("serve.cache.dir"),
		DiskCapacity:     viper.GetInt64("serve.cache.max_size") * humanize.MiByte,
		CompressionLevel: viper.GetInt("serve.cache.compression"),
		TTL:              viper.GetDuration("serve.cache.ttl"),
	}
	store, err := cache.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache: %w", err)
	}
	if viper.GetBool("serve.cache.clear") {
		if err := store.Clear(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("unable to clear cache: %w", err)
		}
		log.Info("Cache cleared", "dir", cfg.DiskPath)
	}
	log.Debug("Cache ready",
		"memory", humanize.IBytes(uint64(cfg.MemoryCapacity)), //nolint:gosec
		"disk", humanize.IBytes(uint64(cfg.DiskCapacity)), //nolint:gosec
		"dir", cfg.DiskPath,
		"used", humanize.IBytes(uint64(store.Size())), //nolint:gosec
	)
	return store, nil
}

func newEngine() (translate.Engine, error) {
	switch engine := viper.GetString("serve.engine"); engine {
	case engineLibreTranslate, "":
		return translate.NewLibreTranslate(
			viper.GetString("serve.libretranslate.url"),
			viper.GetString("serve.libretranslate.api_key"),
			&http.Client{Timeout: 30 * time.Second},
		), nil
	case engineOpenAI:
		key := viper.GetString("serve.openai.api_key")
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, translate.ErrNoAPIKey
		}
		return translate.NewOpenAI(key, viper.GetString("serve.openai.base_url"), viper.GetString("serve.openai.model")), nil
	default:
		return nil, fmt.Errorf("unknown translation engine %q: use %s or %s", engine, engineLibreTranslate, engineOpenAI)
	}
}

// watchConfig reports edits to the config file. The backend is built once,
// so changes apply on the next start.
func watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Info("Configuration changed, restart to apply", "path", e.Name)
	})
	viper.WatchConfig()
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:5000", "listen address")
	serveCmd.Flags().String("engine", engineLibreTranslate, "translation engine (libretranslate/openai)")
	serveCmd.Flags().String("libretranslate-url", "http://127.0.0.1:5001", "LibreTranslate base URL")
	serveCmd.Flags().Bool("no-speech", false, "disable text-to-speech")
	serveCmd.Flags().Bool("clear-cache", false, "empty the translation and speech cache before starting")

	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("serve.engine", serveCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("serve.libretranslate.url", serveCmd.Flags().Lookup("libretranslate-url"))

	viper.SetDefault("serve.addr", "127.0.0.1:5000")
	viper.SetDefault("serve.engine", engineLibreTranslate)
	viper.SetDefault("serve.libretranslate.url", "http://127.0.0.1:5001")
	viper.SetDefault("serve.openai.model", "gpt-4o-mini")
	viper.SetDefault("serve.speech.enabled", true)
	viper.SetDefault("serve.speech.rpm", 50)
	viper.SetDefault("serve.cache.memory_size", 64)
	viper.SetDefault("serve.cache.dir", "~/.cache/lingo")
	viper.SetDefault("serve.cache.max_size", 100)
	viper.SetDefault("serve.cache.compression", 3)
	viper.SetDefault("serve.cache.ttl", 7*24*time.Hour)
	viper.SetDefault("serve.breaker.failures", 5)
	viper.SetDefault("serve.breaker.timeout", 30*time.Second)

	serveCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if off, _ := cmd.Flags().GetBool("no-speech"); off {
			viper.Set("serve.speech.enabled", false)
		}
		if wipe, _ := cmd.Flags().GetBool("clear-cache"); wipe {
			viper.Set("serve.cache.clear", true)
		}
	}
}

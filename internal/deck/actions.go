package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/webslide/webslide/models"
	"github.com/webslide/webslide/pkg/capability"
	"github.com/webslide/webslide/pkg/coordinator"
	"github.com/webslide/webslide/pkg/deckcache"
	"github.com/webslide/webslide/pkg/extractor"
	"github.com/webslide/webslide/pkg/fetcher"
	"github.com/webslide/webslide/pkg/htmlcache"
	"github.com/webslide/webslide/pkg/reconcile"
	"github.com/webslide/webslide/pkg/synthesize"
)

// runtime bundles the pieces every action needs. Actions own its
// lifetime and must call close when done.
type runtime struct {
	cfg   *models.Config
	log   *slog.Logger
	store *deckcache.Store
	reg   *capability.Registry
	fetch *fetcher.Fetcher
	extr  *extractor.Extractor
}

func (rt *runtime) close() {
	if rt.store != nil {
		rt.store.Close()
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func setup(c *cli.Context) *runtime {
	logger := newLogger(c)

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if c.IsSet("model") {
		cfg.Model = c.String("model")
	}
	if c.IsSet("timeout") {
		cfg.WatchdogSeconds = c.Int("timeout")
	}

	store, err := deckcache.Open(cfg.CachePath, cfg.MemCacheEntries, logger)
	if err != nil {
		logger.Error("failed to open deck cache", "error", err, "path", cfg.CachePath)
		os.Exit(2)
	}

	htmlCache, err := htmlcache.New(cfg.HTMLCachePath, cfg.HTMLCacheTTL())
	if err != nil {
		logger.Error("failed to initialize html cache", "error", err, "path", cfg.HTMLCachePath)
		os.Exit(2)
	}

	return &runtime{
		cfg:   cfg,
		log:   logger,
		store: store,
		reg:   newRegistry(c.Context, cfg, logger),
		fetch: fetcher.New(htmlCache),
		extr:  &extractor.Extractor{},
	}
}

// newRegistry wires Gemini-backed capabilities when an API key is
// present and falls back to an empty registry otherwise. Every
// downstream consumer probes availability, so a bare registry still
// produces a deck from heuristics alone.
func newRegistry(ctx context.Context, cfg *models.Config, logger *slog.Logger) *capability.Registry {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		logger.Info("no API key found, using heuristic fallbacks", "env", "GEMINI_API_KEY")
		return capability.NewRegistry()
	}

	providers, err := capability.NewGeminiProviders(ctx, apiKey, cfg.Model)
	if err != nil {
		logger.Warn("failed to initialize model providers, using heuristic fallbacks", "error", err)
		return capability.NewRegistry()
	}
	return capability.NewRegistry(providers...)
}

// pageRequest fetches (or reads) the page HTML, runs extraction and
// assembles a build request for the coordinator.
func pageRequest(c *cli.Context, rt *runtime, opts models.BuildOptions) (models.BuildRequest, error) {
	pageURL := c.String("url")
	htmlFile := c.String("html-file")

	var html string
	switch {
	case htmlFile != "":
		raw, err := os.ReadFile(htmlFile)
		if err != nil {
			return models.BuildRequest{}, fmt.Errorf("failed to read html file: %w", err)
		}
		html = string(raw)
		if pageURL == "" {
			pageURL = "file://" + htmlFile
		}
	default:
		var err error
		html, err = rt.fetch.GetHTML(c.Context, pageURL, c.Bool("force-fetch"))
		if err != nil {
			return models.BuildRequest{}, fmt.Errorf("failed to fetch page: %w", err)
		}
	}

	content, err := rt.extr.ExtractContent(pageURL, html)
	if err != nil {
		return models.BuildRequest{}, fmt.Errorf("failed to extract content: %w", err)
	}

	return models.BuildRequest{
		URL:     pageURL,
		Title:   content.Title,
		Text:    content.Text,
		Images:  rt.extr.ExtractImages(html),
		Options: opts,
	}, nil
}

// runBuild drives one coordinator build to completion, rendering every
// delivery as it arrives. The watchdog may render a placeholder from
// its own goroutine, so rendering is serialized.
func runBuild(c *cli.Context, rt *runtime, req models.BuildRequest) error {
	synth := synthesize.New(rt.reg, rt.log)
	coord := coordinator.New(rt.store, synth, rt.log, rt.cfg.WatchdogBudget())

	var mu sync.Mutex
	var buildErr error
	coord.Build(c.Context, req, func(d coordinator.Delivery) {
		mu.Lock()
		defer mu.Unlock()
		if d.Err != nil {
			buildErr = d.Err
			return
		}
		RenderDeck(os.Stdout, d.Result)
		if !d.Placeholder {
			rt.store.SetMirror(req.URL, d.Result)
		}
	})

	if buildErr != nil {
		return fmt.Errorf("failed to build deck: %w", buildErr)
	}
	return nil
}

func BuildAction(c *cli.Context) error {
	if c.String("url") == "" && c.String("html-file") == "" {
		fmt.Fprintln(os.Stderr, "Error: one of --url or --html-file is required")
		os.Exit(1)
	}

	rt := setup(c)
	defer rt.close()

	opts := models.BuildOptions{
		Tone: c.String("tone"),
		Lang: c.String("lang"),
	}.Normalized()

	req, err := pageRequest(c, rt, opts)
	if err != nil {
		return err
	}

	// Show the last rendered deck for this page immediately; the
	// fresh build follows and replaces it.
	if mirror, ok := rt.store.GetMirror(req.URL); ok && !c.Bool("force-fetch") {
		RenderDeck(os.Stdout, mirror)
		fmt.Fprintln(os.Stdout)
	}

	return runBuild(c, rt, req)
}

func RewriteAction(c *cli.Context) error {
	pageURL := c.String("url")
	if pageURL == "" {
		fmt.Fprintln(os.Stderr, "Error: --url is required")
		os.Exit(1)
	}
	tone := c.String("tone")

	rt := setup(c)
	defer rt.close()

	deck, ok := rt.store.GetMirror(pageURL)
	if !ok {
		return fmt.Errorf("no rendered deck for %s, run build first", pageURL)
	}

	rec := reconcile.New(rt.reg, rt.store, rt.log)
	err := rec.RewriteTone(c.Context, pageURL, deck, tone)
	if errors.Is(err, reconcile.ErrNotApplied) {
		rt.log.Info("in-place rewrite unavailable, rebuilding", "tone", tone)
		opts := models.BuildOptions{Tone: tone, Lang: c.String("lang")}.Normalized()
		req, reqErr := pageRequest(c, rt, opts)
		if reqErr != nil {
			return reqErr
		}
		return runBuild(c, rt, req)
	}
	if err != nil {
		return fmt.Errorf("failed to rewrite deck: %w", err)
	}

	RenderDeck(os.Stdout, deck)
	return nil
}

func TranslateAction(c *cli.Context) error {
	pageURL := c.String("url")
	if pageURL == "" {
		fmt.Fprintln(os.Stderr, "Error: --url is required")
		os.Exit(1)
	}
	targetLang := c.String("lang")
	if targetLang == "" {
		fmt.Fprintln(os.Stderr, "Error: --lang is required")
		os.Exit(1)
	}

	rt := setup(c)
	defer rt.close()

	deck, ok := rt.store.GetMirror(pageURL)
	if !ok {
		return fmt.Errorf("no rendered deck for %s, run build first", pageURL)
	}

	rec := reconcile.New(rt.reg, rt.store, rt.log)
	err := rec.Translate(c.Context, pageURL, deck, c.String("from"), targetLang)
	if errors.Is(err, reconcile.ErrNotApplied) {
		rt.log.Info("in-place translation unavailable, rebuilding", "lang", targetLang)
		opts := models.BuildOptions{Tone: c.String("tone"), Lang: targetLang}.Normalized()
		req, reqErr := pageRequest(c, rt, opts)
		if reqErr != nil {
			return reqErr
		}
		return runBuild(c, rt, req)
	}
	if err != nil {
		return fmt.Errorf("failed to translate deck: %w", err)
	}

	RenderDeck(os.Stdout, deck)
	return nil
}

func CacheClearAction(c *cli.Context) error {
	rt := setup(c)
	defer rt.close()

	if err := rt.store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Cache cleared.")
	return nil
}

func CacheStatsAction(c *cli.Context) error {
	rt := setup(c)
	defer rt.close()

	decks, mirrors, err := rt.store.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}
	fmt.Printf("decks: %d\nmirrors: %d\n", decks, mirrors)
	return nil
}

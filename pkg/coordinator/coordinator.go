// Package coordinator orchestrates one deck build end to end: cache
// lookup, synthesis, watchdog placeholder, result delivery and the single
// cache write on the fresh-success path.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/webslide/webslide/models"
	"github.com/webslide/webslide/pkg/deckcache"
)

// DefaultWatchdogBudget is how long a build may run before the one-time
// placeholder deliverable goes out.
const DefaultWatchdogBudget = 8 * time.Second

// Builder produces a deck from a build request.
type Builder interface {
	Synthesize(ctx context.Context, req models.BuildRequest) (*models.BuildResult, error)
}

// Delivery is one deliverable: a result, an error, or the watchdog's
// placeholder. A timed-out build delivers twice, placeholder first.
type Delivery struct {
	Key         string
	Result      *models.BuildResult
	Err         error
	Placeholder bool
}

type DeliverFunc func(Delivery)

type Coordinator struct {
	store   *deckcache.Store
	builder Builder
	log     *slog.Logger
	budget  time.Duration

	mu       sync.Mutex
	inflight map[string]*pending
}

// pending is one in-flight build. mu serializes the done check with
// delivery fan-out so the placeholder can never trail the real result.
type pending struct {
	mu       sync.Mutex
	delivers []DeliverFunc
	done     bool
	timer    *time.Timer
}

func New(store *deckcache.Store, builder Builder, logger *slog.Logger, budget time.Duration) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if budget <= 0 {
		budget = DefaultWatchdogBudget
	}
	return &Coordinator{
		store:    store,
		builder:  builder,
		log:      logger,
		budget:   budget,
		inflight: make(map[string]*pending),
	}
}

// Build runs one build request. A concurrent request for the same cache
// key attaches to the pending build instead of starting a second
// synthesis; attached callers return immediately and are delivered to
// when the first build finishes.
//
// Delivery order on timeout: the placeholder (Meta.TimedOut) exactly
// once, then the real result when synthesis completes. Only the real
// result is cached; the watchdog never cancels the underlying work.
func (c *Coordinator) Build(ctx context.Context, req models.BuildRequest, deliver DeliverFunc) {
	req.Options = req.Options.Normalized()
	key := req.Options.CacheKey(req.URL)

	c.mu.Lock()
	if p, ok := c.inflight[key]; ok {
		p.mu.Lock()
		p.delivers = append(p.delivers, deliver)
		p.mu.Unlock()
		c.mu.Unlock()
		return
	}
	p := &pending{delivers: []DeliverFunc{deliver}}
	c.inflight[key] = p
	c.mu.Unlock()

	// The placeholder goes out while p.mu is held: a build finishing in
	// the same instant blocks in finish until the placeholder fan-out
	// completes, so the real result always arrives last.
	p.timer = time.AfterFunc(c.budget, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.done {
			return
		}
		c.log.Warn("build watchdog fired, sending placeholder", "key", key)
		d := Delivery{Key: key, Result: placeholderResult(req.Title), Placeholder: true}
		for _, f := range p.delivers {
			f(d)
		}
	})

	if cached, ok := c.store.Get(key); ok {
		c.log.Info("cache hit", "key", key)
		cached.Meta.FromCache = true
		c.finish(key, p, Delivery{Key: key, Result: cached})
		return
	}

	res, err := c.builder.Synthesize(ctx, req)
	if err != nil {
		c.log.Error("synthesis failed", "key", key, "error", err)
		c.finish(key, p, Delivery{Key: key, Err: err})
		return
	}

	// The single cache write: fresh synthesis success only.
	c.store.Set(key, res)
	c.finish(key, p, Delivery{Key: key, Result: res})
}

// ClearCache drops every cached deck and mirror.
func (c *Coordinator) ClearCache() error {
	return c.store.ClearAll()
}

// finish marks the build resolved, stops the watchdog from firing its
// placeholder, and fans the terminal delivery out to every attached caller.
func (c *Coordinator) finish(key string, p *pending, d Delivery) {
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()

	// Taking p.mu here waits out a watchdog mid-send; once done is set
	// the watchdog can only return without delivering.
	p.mu.Lock()
	p.done = true
	if p.timer != nil {
		p.timer.Stop()
	}
	targets := append([]DeliverFunc(nil), p.delivers...)
	p.mu.Unlock()

	for _, f := range targets {
		f(d)
	}
}

func placeholderResult(pageTitle string) *models.BuildResult {
	title := pageTitle
	if title == "" {
		title = models.DefaultProductName
	}
	return &models.BuildResult{
		Title: title,
		Script: models.Script{
			Hook: "Preparing a quick preview…",
			Scenes: []models.Slide{
				{Title: "Loading…", Line: "Fetching and summarizing this page."},
			},
		},
		Meta: models.BuildMeta{Availability: "unknown", TimedOut: true},
	}
}

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/webslide/webslide/models"
	"github.com/webslide/webslide/pkg/deckcache"
)

type fakeBuilder struct {
	mu    sync.Mutex
	calls int
	block chan struct{}
	delay time.Duration
	res   *models.BuildResult
	err   error
}

func (b *fakeBuilder) Synthesize(ctx context.Context, req models.BuildRequest) (*models.BuildResult, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.block != nil {
		<-b.block
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.err != nil {
		return nil, b.err
	}
	if b.res != nil {
		return b.res, nil
	}
	return freshDeck(), nil
}

func (b *fakeBuilder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func freshDeck() *models.BuildResult {
	return &models.BuildResult{
		Title: "Fresh Deck",
		Script: models.Script{
			Hook:   "A hook.",
			Scenes: []models.Slide{{Title: "One", Line: "Line one."}},
		},
		Meta: models.BuildMeta{Availability: "ready"},
	}
}

type recorder struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func (r *recorder) deliver(d Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
}

func (r *recorder) all() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Delivery(nil), r.deliveries...)
}

func setupStore(t *testing.T) *deckcache.Store {
	t.Helper()
	store, err := deckcache.Open(":memory:", 8, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBuildFreshSuccessCaches(t *testing.T) {
	store := setupStore(t)
	builder := &fakeBuilder{}
	c := New(store, builder, nil, time.Minute)

	req := models.BuildRequest{URL: "https://example.com/a", Title: "T"}
	rec := &recorder{}
	c.Build(context.Background(), req, rec.deliver)

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(got))
	}
	if got[0].Err != nil || got[0].Placeholder {
		t.Fatalf("unexpected delivery: %+v", got[0])
	}
	if got[0].Result.Title != "Fresh Deck" {
		t.Errorf("Title = %q", got[0].Result.Title)
	}

	key := models.BuildOptions{}.CacheKey(req.URL)
	cached, ok := store.Get(key)
	if !ok {
		t.Fatal("fresh success should be cached")
	}
	if cached.Title != "Fresh Deck" {
		t.Errorf("cached Title = %q", cached.Title)
	}
}

func TestBuildCacheHitSkipsSynthesis(t *testing.T) {
	store := setupStore(t)
	builder := &fakeBuilder{}
	c := New(store, builder, nil, time.Minute)

	req := models.BuildRequest{URL: "https://example.com/a"}
	key := models.BuildOptions{}.CacheKey(req.URL)
	store.Set(key, freshDeck())

	rec := &recorder{}
	c.Build(context.Background(), req, rec.deliver)

	if builder.callCount() != 0 {
		t.Errorf("builder called %d times on cache hit, want 0", builder.callCount())
	}
	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(got))
	}
	if !got[0].Result.Meta.FromCache {
		t.Error("cache hit should set FromCache")
	}
}

func TestBuildErrorNotCached(t *testing.T) {
	store := setupStore(t)
	builder := &fakeBuilder{err: errors.New("model exploded")}
	c := New(store, builder, nil, time.Minute)

	req := models.BuildRequest{URL: "https://example.com/a"}
	rec := &recorder{}
	c.Build(context.Background(), req, rec.deliver)

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(got))
	}
	if got[0].Err == nil {
		t.Fatal("error build should deliver the error")
	}
	key := models.BuildOptions{}.CacheKey(req.URL)
	if _, ok := store.Get(key); ok {
		t.Error("failed build must not be cached")
	}
}

func TestBuildWatchdogPlaceholderThenResult(t *testing.T) {
	store := setupStore(t)
	release := make(chan struct{})
	builder := &fakeBuilder{block: release}
	c := New(store, builder, nil, 20*time.Millisecond)

	req := models.BuildRequest{URL: "https://example.com/slow", Title: "Slow Page"}
	rec := &recorder{}
	done := make(chan struct{})
	go func() {
		c.Build(context.Background(), req, rec.deliver)
		close(done)
	}()

	// Let the watchdog fire before the build completes.
	time.Sleep(100 * time.Millisecond)
	close(release)
	<-done

	got := rec.all()
	if len(got) != 2 {
		t.Fatalf("got %d deliveries, want placeholder then result: %+v", len(got), got)
	}
	if !got[0].Placeholder || !got[0].Result.Meta.TimedOut {
		t.Errorf("first delivery should be the placeholder: %+v", got[0])
	}
	if got[0].Result.Title != "Slow Page" {
		t.Errorf("placeholder title = %q, want page title", got[0].Result.Title)
	}
	if got[1].Placeholder || got[1].Result.Title != "Fresh Deck" {
		t.Errorf("second delivery should be the real deck: %+v", got[1])
	}

	// Only the real result lands in the cache.
	key := models.BuildOptions{}.CacheKey(req.URL)
	cached, ok := store.Get(key)
	if !ok {
		t.Fatal("real result should be cached after timeout")
	}
	if cached.Meta.TimedOut {
		t.Error("placeholder leaked into the cache")
	}
}

func TestBuildFastPathSuppressesWatchdog(t *testing.T) {
	store := setupStore(t)
	builder := &fakeBuilder{}
	c := New(store, builder, nil, 50*time.Millisecond)

	rec := &recorder{}
	c.Build(context.Background(), models.BuildRequest{URL: "https://example.com/fast"}, rec.deliver)

	// Give a leaked timer a chance to fire.
	time.Sleep(120 * time.Millisecond)

	got := rec.all()
	if len(got) != 1 {
		t.Fatalf("got %d deliveries, want 1 (no placeholder): %+v", len(got), got)
	}
	if got[0].Placeholder {
		t.Error("fast build should never deliver a placeholder")
	}
}

func TestPlaceholderNeverTrailsResult(t *testing.T) {
	// Race the watchdog against build completion by making their
	// timings coincide. Whatever interleaving wins, the real result
	// must be the final delivery.
	store := setupStore(t)
	builder := &fakeBuilder{delay: time.Millisecond}
	c := New(store, builder, nil, time.Millisecond)

	for i := 0; i < 50; i++ {
		rec := &recorder{}
		url := fmt.Sprintf("https://example.com/race-%d", i)
		c.Build(context.Background(), models.BuildRequest{URL: url}, rec.deliver)

		// Let a watchdog that lost the race drain fully.
		time.Sleep(5 * time.Millisecond)

		got := rec.all()
		if len(got) == 0 || len(got) > 2 {
			t.Fatalf("iteration %d: got %d deliveries: %+v", i, len(got), got)
		}
		if last := got[len(got)-1]; last.Placeholder {
			t.Fatalf("iteration %d: placeholder delivered after the real result", i)
		}
		if len(got) == 2 && !got[0].Placeholder {
			t.Fatalf("iteration %d: two deliveries but first is not the placeholder", i)
		}
	}
}

func TestBuildDeduplicatesInflight(t *testing.T) {
	store := setupStore(t)
	release := make(chan struct{})
	builder := &fakeBuilder{block: release}
	c := New(store, builder, nil, time.Minute)

	req := models.BuildRequest{URL: "https://example.com/a"}
	first := &recorder{}
	second := &recorder{}

	done := make(chan struct{})
	go func() {
		c.Build(context.Background(), req, first.deliver)
		close(done)
	}()

	// Wait for the first build to register as in-flight.
	for i := 0; i < 100; i++ {
		if builder.callCount() == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Same key attaches; different fragment still normalizes to the
	// same key.
	c.Build(context.Background(), models.BuildRequest{URL: "https://example.com/a#frag"}, second.deliver)

	close(release)
	<-done

	if builder.callCount() != 1 {
		t.Errorf("builder called %d times, want 1", builder.callCount())
	}
	if got := first.all(); len(got) != 1 || got[0].Result == nil {
		t.Errorf("first caller deliveries: %+v", got)
	}
	if got := second.all(); len(got) != 1 || got[0].Result == nil {
		t.Errorf("attached caller deliveries: %+v", got)
	}
}

func TestClearCache(t *testing.T) {
	store := setupStore(t)
	c := New(store, &fakeBuilder{}, nil, time.Minute)

	key := models.BuildOptions{}.CacheKey("https://example.com/a")
	store.Set(key, freshDeck())

	if err := c.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if _, ok := store.Get(key); ok {
		t.Error("cache should be empty after ClearCache")
	}
}

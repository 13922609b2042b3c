package deckcache

import (
	"testing"

	"github.com/webslide/webslide/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:", 4, nil)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleDeck(title string) *models.BuildResult {
	return &models.BuildResult{
		Title: title,
		Script: models.Script{
			Hook: "A hook line.",
			Scenes: []models.Slide{
				{Title: "First", Line: "First line.", Image: "https://cdn.example.com/a.jpg"},
				{Title: "Second", Line: "Second line."},
			},
		},
		Meta: models.BuildMeta{Availability: "ready", HadPageImages: true},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	key := models.BuildOptions{Tone: "default", Lang: "en"}.CacheKey("https://example.com/a")

	if _, ok := store.Get(key); ok {
		t.Fatal("Get() on empty store should miss")
	}

	store.Set(key, sampleDeck("Round Trip"))

	got, ok := store.Get(key)
	if !ok {
		t.Fatal("Get() after Set() should hit")
	}
	if got.Title != "Round Trip" {
		t.Errorf("Title = %q, want %q", got.Title, "Round Trip")
	}
	if len(got.Script.Scenes) != 2 {
		t.Fatalf("got %d scenes, want 2", len(got.Script.Scenes))
	}
	if got.Script.Scenes[0].Image != "https://cdn.example.com/a.jpg" {
		t.Errorf("scene image = %q", got.Script.Scenes[0].Image)
	}
	if !got.Meta.HadPageImages {
		t.Error("meta flag lost in round trip")
	}
}

func TestStoreGetHandsOutCopies(t *testing.T) {
	store := setupTestStore(t)
	key := "https://example.com/a::default::en::" + models.SchemaVersion
	store.Set(key, sampleDeck("Original"))

	first, _ := store.Get(key)
	first.Title = "Mutated"
	first.Script.Scenes[0].Line = "Mutated line."

	second, _ := store.Get(key)
	if second.Title != "Original" {
		t.Errorf("mutation leaked into cache: Title = %q", second.Title)
	}
	if second.Script.Scenes[0].Line != "First line." {
		t.Errorf("mutation leaked into cached scene: %q", second.Script.Scenes[0].Line)
	}
}

func TestStoreReadThroughAfterEviction(t *testing.T) {
	store := setupTestStore(t)

	// Fill past the memory front's capacity of 4 so the first key is
	// evicted and must be served from sqlite.
	keys := []string{"k1", "k2", "k3", "k4", "k5", "k6"}
	for _, k := range keys {
		store.Set(k, sampleDeck("deck "+k))
	}

	got, ok := store.Get("k1")
	if !ok {
		t.Fatal("evicted key should still hit via sqlite")
	}
	if got.Title != "deck k1" {
		t.Errorf("Title = %q, want %q", got.Title, "deck k1")
	}
}

func TestStoreKeyIsolation(t *testing.T) {
	store := setupTestStore(t)
	keyEN := models.BuildOptions{Tone: "default", Lang: "en"}.CacheKey("https://example.com/a")
	keyES := models.BuildOptions{Tone: "default", Lang: "es"}.CacheKey("https://example.com/a")

	store.Set(keyEN, sampleDeck("English"))

	if _, ok := store.Get(keyES); ok {
		t.Error("different lang should be a different cache entry")
	}
}

func TestStoreClearAll(t *testing.T) {
	store := setupTestStore(t)
	store.Set("k1", sampleDeck("deck"))
	store.SetMirror("https://example.com/a", sampleDeck("mirror"))

	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if _, ok := store.Get("k1"); ok {
		t.Error("deck survived ClearAll")
	}
	if _, ok := store.GetMirror("https://example.com/a"); ok {
		t.Error("mirror survived ClearAll")
	}
	decks, mirrors, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if decks != 0 || mirrors != 0 {
		t.Errorf("Stats() = %d decks, %d mirrors after clear", decks, mirrors)
	}
}

func TestMirrorNormalizesURL(t *testing.T) {
	store := setupTestStore(t)
	store.SetMirror("https://example.com/a#section", sampleDeck("mirror"))

	got, ok := store.GetMirror("https://example.com/a")
	if !ok {
		t.Fatal("fragment-only difference should hit the same mirror row")
	}
	if got.Title != "mirror" {
		t.Errorf("Title = %q", got.Title)
	}

	// Overwrite keeps one row per page.
	store.SetMirror("https://example.com/a", sampleDeck("newer"))
	got, _ = store.GetMirror("https://example.com/a#other")
	if got.Title != "newer" {
		t.Errorf("mirror not overwritten: %q", got.Title)
	}
	_, mirrors, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if mirrors != 1 {
		t.Errorf("got %d mirror rows, want 1", mirrors)
	}
}

func TestStats(t *testing.T) {
	store := setupTestStore(t)
	store.Set("k1", sampleDeck("a"))
	store.Set("k2", sampleDeck("b"))
	store.SetMirror("https://example.com/a", sampleDeck("m"))

	decks, mirrors, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if decks != 2 || mirrors != 1 {
		t.Errorf("Stats() = %d decks, %d mirrors, want 2 and 1", decks, mirrors)
	}
}

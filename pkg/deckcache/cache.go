// Package deckcache persists built decks keyed by (page, tone, lang,
// schema version), with a bounded in-memory front and a per-URL mirror
// record of the most recent rendered deck.
//
// Storage failures are soft: a failed read is a miss, a failed write is
// logged and never fails the build.
package deckcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/webslide/webslide/models"
)

const DefaultMemEntries = 256

type Store struct {
	db  *sql.DB
	mem *lru.Cache[string, *models.BuildResult]
	log *slog.Logger
}

// Open opens or creates the cache database at path (":memory:" works for
// tests) and initializes the schema.
func Open(path string, memEntries int, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if memEntries <= 0 {
		memEntries = DefaultMemEntries
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// One connection keeps writes serialized and makes ":memory:" safe.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	mem, err := lru.New[string, *models.BuildResult](memEntries)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &Store{db: db, mem: mem, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get looks a deck up by cache key, memory front first, then sqlite.
func (s *Store) Get(key string) (*models.BuildResult, bool) {
	if res, ok := s.mem.Get(key); ok {
		return res.Clone(), true
	}
	res, ok := s.getRow("SELECT payload FROM deck_cache WHERE cache_key = ?", key)
	if !ok {
		return nil, false
	}
	s.mem.Add(key, res.Clone())
	return res, true
}

// Set stores a freshly built deck under key. Write failures are logged
// and swallowed.
func (s *Store) Set(key string, res *models.BuildResult) {
	payload, err := json.Marshal(res)
	if err != nil {
		s.log.Warn("failed to encode deck for cache", "key", key, "error", err)
		return
	}
	_, err = s.db.Exec(`
		INSERT INTO deck_cache (cache_key, payload) VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, created_at = CURRENT_TIMESTAMP
	`, key, string(payload))
	if err != nil {
		s.log.Warn("failed to write deck cache", "key", key, "error", err)
	}
	s.mem.Add(key, res.Clone())
}

// ClearAll unconditionally drops every cached deck and mirror, in both
// levels.
func (s *Store) ClearAll() error {
	s.mem.Purge()
	if _, err := s.db.Exec("DELETE FROM deck_cache"); err != nil {
		return fmt.Errorf("failed to clear deck cache: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM mirror"); err != nil {
		return fmt.Errorf("failed to clear mirror: %w", err)
	}
	return nil
}

// GetMirror returns the most recent rendered deck for a page URL.
func (s *Store) GetMirror(pageURL string) (*models.BuildResult, bool) {
	return s.getRow("SELECT payload FROM mirror WHERE url = ?", models.NormalizeURL(pageURL))
}

// SetMirror persists the most recent rendered deck for a page URL. The
// mirror never feeds the keyed deck cache.
func (s *Store) SetMirror(pageURL string, res *models.BuildResult) {
	payload, err := json.Marshal(res)
	if err != nil {
		s.log.Warn("failed to encode mirror", "url", pageURL, "error", err)
		return
	}
	_, err = s.db.Exec(`
		INSERT INTO mirror (url, payload) VALUES (?, ?)
		ON CONFLICT(url) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP
	`, models.NormalizeURL(pageURL), string(payload))
	if err != nil {
		s.log.Warn("failed to write mirror", "url", pageURL, "error", err)
	}
}

// Stats reports row counts for the cache CLI.
func (s *Store) Stats() (decks, mirrors int, err error) {
	if err = s.db.QueryRow("SELECT COUNT(*) FROM deck_cache").Scan(&decks); err != nil {
		return 0, 0, fmt.Errorf("failed to count decks: %w", err)
	}
	if err = s.db.QueryRow("SELECT COUNT(*) FROM mirror").Scan(&mirrors); err != nil {
		return 0, 0, fmt.Errorf("failed to count mirrors: %w", err)
	}
	return decks, mirrors, nil
}

func (s *Store) getRow(query, arg string) (*models.BuildResult, bool) {
	var payload string
	err := s.db.QueryRow(query, arg).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("cache read failed, treating as miss", "error", err)
		return nil, false
	}
	var res models.BuildResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		s.log.Warn("cache entry undecodable, treating as miss", "error", err)
		return nil, false
	}
	return &res, true
}

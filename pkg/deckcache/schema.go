package deckcache

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- Persistent deck cache: one row per (url, tone, lang, schema version) key.
CREATE TABLE IF NOT EXISTS deck_cache (
    cache_key TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Mirror: most recent rendered deck per page URL, for instant reload and
-- in-place reconciliation.
CREATE TABLE IF NOT EXISTS mirror (
    url TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

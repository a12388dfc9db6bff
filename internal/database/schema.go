package database

// schemaVersion is stored in PRAGMA user_version once schema is applied.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS skip_cache (
	mal_id INTEGER NOT NULL,
	episode INTEGER NOT NULL,
	found BOOLEAN NOT NULL DEFAULT 0,
	op_start REAL,
	op_end REAL,
	ed_start REAL,
	ed_end REAL,
	cached_at INTEGER NOT NULL,
	PRIMARY KEY (mal_id, episode)
);

CREATE INDEX IF NOT EXISTS idx_skip_cached_at ON skip_cache(cached_at);

CREATE TABLE IF NOT EXISTS seen_episodes (
	slug TEXT NOT NULL,
	season INTEGER NOT NULL,
	episode INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	notified_at INTEGER,
	PRIMARY KEY (slug, season, episode)
);

CREATE INDEX IF NOT EXISTS idx_seen_created_at ON seen_episodes(created_at);
`

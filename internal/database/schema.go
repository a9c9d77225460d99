package database

// schema holds the vitals tables.
//
// cache_entries: one row per key and codec. timestamp is unix seconds (UTC).
// baselines: singleton row (id = 1) with the last persisted baseline.
// readiness_history: one readiness score per local day.
const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    key TEXT NOT NULL,
    codec TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    data BLOB NOT NULL,
    PRIMARY KEY (key, codec)
) STRICT;

CREATE INDEX IF NOT EXISTS idx_cache_entries_timestamp ON cache_entries(timestamp);

CREATE TABLE IF NOT EXISTS baselines (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    hrv_baseline REAL NOT NULL,
    rhr_baseline REAL NOT NULL,
    typical_sleep_hours REAL NOT NULL,
    hrv_samples INTEGER NOT NULL,
    rhr_samples INTEGER NOT NULL,
    source TEXT NOT NULL DEFAULT 'api',
    computed_at INTEGER NOT NULL
) STRICT;

CREATE TABLE IF NOT EXISTS readiness_history (
    day TEXT PRIMARY KEY,
    score INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL
) STRICT;
`

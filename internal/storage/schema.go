package storage

const schemaVersion = "1"

const schemaSQL = `
-- One row per exported crawl run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY NOT NULL,
    root_url TEXT NOT NULL,
    started_at TEXT NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    checked INTEGER NOT NULL DEFAULT 0,
    visited INTEGER NOT NULL DEFAULT 0,
    broken_count INTEGER NOT NULL DEFAULT 0,
    peak_tasks INTEGER NOT NULL DEFAULT 0,
    complete INTEGER NOT NULL DEFAULT 1 CHECK (complete IN (0, 1)),
    exported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS broken_links (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    referrer TEXT NOT NULL,
    status_code INTEGER NOT NULL DEFAULT 0,
    reason TEXT,
    UNIQUE(run_id, url)
);

CREATE INDEX IF NOT EXISTS idx_broken_run ON broken_links(run_id);
CREATE INDEX IF NOT EXISTS idx_broken_referrer ON broken_links(referrer);

CREATE TABLE IF NOT EXISTS visited_pages (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    PRIMARY KEY (run_id, url)
);

CREATE TABLE IF NOT EXISTS checked_links (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    url TEXT NOT NULL,
    PRIMARY KEY (run_id, url)
);

-- Per-run broken counts grouped by the page that referenced them
CREATE VIEW IF NOT EXISTS broken_by_page AS
SELECT
    run_id,
    referrer,
    COUNT(*) as broken
FROM broken_links
GROUP BY run_id, referrer;

-- Export metadata as key-value pairs
CREATE TABLE IF NOT EXISTS export_meta (
    key TEXT PRIMARY KEY NOT NULL,
    value TEXT NOT NULL
);
`

package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per scout invocation. Timestamps are RFC 3339 text in UTC.
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    query TEXT NOT NULL,
    output_path TEXT,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    status TEXT NOT NULL,
    error_message TEXT,
    search_results INTEGER DEFAULT 0,
    domain_count INTEGER DEFAULT 0,
    pages_fetched INTEGER DEFAULT 0,
    pages_failed INTEGER DEFAULT 0,
    record_count INTEGER DEFAULT 0,
    unique_emails INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

-- Page accesses: every fetch attempt within a run
CREATE TABLE IF NOT EXISTS page_accesses (
    access_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    domain TEXT NOT NULL,
    url TEXT NOT NULL,
    accessed_at TEXT NOT NULL,
    status_code INTEGER,
    error_type TEXT,
    success BOOLEAN NOT NULL,
    email_count INTEGER DEFAULT 0,
    contact_signal BOOLEAN DEFAULT 0,
    title TEXT,
    site_name TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accesses_run ON page_accesses(run_id);
CREATE INDEX IF NOT EXISTS idx_accesses_domain ON page_accesses(domain);
CREATE INDEX IF NOT EXISTS idx_accesses_success ON page_accesses(success);

-- Contacts: the rows written to the CSV for a run, in output order
CREATE TABLE IF NOT EXISTS contacts (
    contact_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    found_at TEXT NOT NULL,
    domain TEXT NOT NULL,
    page TEXT NOT NULL,
    email TEXT,
    form_found_page BOOLEAN DEFAULT 0,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_contacts_run ON contacts(run_id);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);
`

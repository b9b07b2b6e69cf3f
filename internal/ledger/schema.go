package ledger

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    backend TEXT NOT NULL,
    packages TEXT NOT NULL,
    scope TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL DEFAULT 'installed',
    status_changed_at TIMESTAMP NOT NULL,
    ever_confirmed BOOLEAN NOT NULL DEFAULT 0,
    username TEXT
);

CREATE TABLE IF NOT EXISTS rollbacks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id INTEGER NOT NULL,
    performed_at TIMESTAMP NOT NULL,
    username TEXT,
    FOREIGN KEY (entry_id) REFERENCES entries(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_entries_status ON entries(status);
CREATE INDEX IF NOT EXISTS idx_entries_backend ON entries(backend);
CREATE INDEX IF NOT EXISTS idx_rollbacks_entry ON rollbacks(entry_id);
`

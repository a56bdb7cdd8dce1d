package store

const schema = `
CREATE TABLE IF NOT EXISTS records (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker     TEXT NOT NULL,
    source     TEXT NOT NULL,
    title      TEXT NOT NULL,
    body       TEXT NOT NULL DEFAULT '',
    date       TEXT NOT NULL DEFAULT '',
    fetched_at DATETIME NOT NULL,
    UNIQUE(ticker, source, title, date)
);

CREATE INDEX IF NOT EXISTS idx_records_ticker ON records(ticker);
CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);
CREATE INDEX IF NOT EXISTS idx_records_fetched_at ON records(fetched_at);

CREATE TABLE IF NOT EXISTS fetch_log (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker     TEXT NOT NULL,
    source     TEXT NOT NULL,
    count      INTEGER NOT NULL DEFAULT 0,
    error      TEXT NOT NULL DEFAULT '',
    fetched_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fetch_log_ticker ON fetch_log(ticker);
CREATE INDEX IF NOT EXISTS idx_fetch_log_fetched_at ON fetch_log(fetched_at);
`

package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS datasets (
    source               TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    reference_year       INTEGER NOT NULL,
    fetched_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    source               TEXT NOT NULL REFERENCES datasets(source) ON DELETE CASCADE,
    seq                  INTEGER NOT NULL,
    date                 TEXT NOT NULL,
    day                  TEXT NOT NULL,
    date_valid           INTEGER NOT NULL DEFAULT 1,
    agency               TEXT NOT NULL,
    pax_usd              TEXT NOT NULL,
    sales_usd            TEXT NOT NULL,
    pax_npr              TEXT NOT NULL,
    sales_npr            TEXT NOT NULL,
    PRIMARY KEY (source, seq)
);

CREATE TABLE IF NOT EXISTS processed_files (
    id                   TEXT PRIMARY KEY,
    original_file        TEXT NOT NULL,
    output_path          TEXT,
    uploaded_by          TEXT,
    status               TEXT NOT NULL,
    error                TEXT,
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processed_files_status ON processed_files(status, updated_at);
`

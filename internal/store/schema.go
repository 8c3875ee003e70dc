package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS auth_session (
    slot                 INTEGER PRIMARY KEY CHECK (slot = 1),
    user_id              TEXT NOT NULL,
    email                TEXT NOT NULL,
    name                 TEXT,
    occupation           TEXT,
    access_token         TEXT NOT NULL,
    refresh_token        TEXT NOT NULL,
    token_type           TEXT,
    expires_at           TEXT,
    saved_at             TEXT NOT NULL
);
`

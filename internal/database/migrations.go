package database

const schema = `
CREATE TABLE IF NOT EXISTS emails (
    uidvalidity INTEGER NOT NULL,
    uid INTEGER NOT NULL,
    message_id TEXT NOT NULL UNIQUE,
    subject TEXT,
    from_addr TEXT,
    to_addr TEXT,
    date DATETIME,
    body TEXT,
    raw_content TEXT,
    status TEXT NOT NULL DEFAULT 'new',
    fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (uidvalidity, uid)
);

CREATE TABLE IF NOT EXISTS notes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uidvalidity INTEGER NOT NULL,
    uid INTEGER NOT NULL,
    page INTEGER NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(uidvalidity, uid, page)
);

CREATE TABLE IF NOT EXISTS photos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uidvalidity INTEGER NOT NULL,
    uid INTEGER NOT NULL,
    filename TEXT NOT NULL,
    uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_emails_date ON emails(date);
CREATE INDEX IF NOT EXISTS idx_notes_email ON notes(uidvalidity, uid);
CREATE INDEX IF NOT EXISTS idx_photos_email ON photos(uidvalidity, uid);
`

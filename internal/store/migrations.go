package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string

	// tolerant migrations may fail without aborting startup. Used for
	// column additions that already exist on freshly created tables.
	tolerant bool
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS emails (
	id             INTEGER PRIMARY KEY,
	subject        TEXT,
	sender         TEXT,
	date_str       TEXT,
	body           TEXT,
	has_attachment INTEGER NOT NULL DEFAULT 0,
	category       TEXT NOT NULL DEFAULT 'Inbox'
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`,
	},
	{
		// Databases created before categorization existed lack the column.
		version:  2,
		tolerant: true,
		sql:      `ALTER TABLE emails ADD COLUMN category TEXT NOT NULL DEFAULT 'Inbox';`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS accounts (
	email      TEXT PRIMARY KEY,
	imap_host  TEXT NOT NULL DEFAULT '',
	imap_port  INTEGER NOT NULL DEFAULT 993,
	smtp_host  TEXT NOT NULL DEFAULT '',
	smtp_port  INTEGER NOT NULL DEFAULT 587,
	is_demo    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category);
`,
	},
}

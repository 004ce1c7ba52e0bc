package recordpg

// Schema creates the records table and its owner indexes.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
		id            TEXT PRIMARY KEY,
		owner         TEXT NOT NULL,
		title         TEXT NOT NULL,
		source_file   TEXT NOT NULL DEFAULT '',
		store_ref     TEXT,
		status        TEXT NOT NULL,
		error_message TEXT,
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS records_owner_created_idx ON records (owner, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS records_owner_status_created_idx ON records (owner, status, created_at DESC, id DESC)`,
}

package storage

// schema is applied statement by statement on Open. It is valid for both
// sqlite and postgres.
var schema = []string{
	// One row per registered user. password_hash is empty for users created
	// without a password.
	`CREATE TABLE IF NOT EXISTS users (
    uid TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
)`,
	// One JSON document per (user, language), always replaced as a whole.
	`CREATE TABLE IF NOT EXISTS documents (
    user_id TEXT NOT NULL,
    language TEXT NOT NULL,
    body TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (user_id, language)
)`,
}

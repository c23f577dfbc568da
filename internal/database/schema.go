package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements are idempotent so EnsureSchema can run at every startup.
// The unique index on chats normalizes the participant pair with
// LEAST/GREATEST and folds a missing subject item to 0, which is what makes
// "at most one conversation per unordered pair and item" hold under
// concurrent creates.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         SERIAL PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		password   TEXT NOT NULL,
		avatar     TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		icon TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id          SERIAL PRIMARY KEY,
		title       TEXT NOT NULL,
		image       TEXT NOT NULL DEFAULT '',
		wants       TEXT NOT NULL DEFAULT '',
		distance    TEXT NOT NULL DEFAULT 'Calculando...',
		condition   TEXT NOT NULL DEFAULT 'Usado',
		category_id INTEGER NOT NULL REFERENCES categories(id),
		user_id     INTEGER NOT NULL REFERENCES users(id),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id         SERIAL PRIMARY KEY,
		user_a_id  INTEGER NOT NULL REFERENCES users(id),
		user_b_id  INTEGER NOT NULL REFERENCES users(id),
		item_id    INTEGER REFERENCES items(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS chats_pair_item_key
		ON chats (LEAST(user_a_id, user_b_id), GREATEST(user_a_id, user_b_id), COALESCE(item_id, 0))`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         SERIAL PRIMARY KEY,
		chat_id    INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		sender_id  INTEGER NOT NULL REFERENCES users(id),
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_chat_created_idx
		ON messages (chat_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS message_notifications (
		id           SERIAL PRIMARY KEY,
		chat_id      INTEGER NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
		message_id   INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		recipient_id INTEGER NOT NULL REFERENCES users(id),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		seen_at      TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS message_notifications_recipient_idx
		ON message_notifications (recipient_id) WHERE seen_at IS NULL`,
}

// EnsureSchema creates the application tables if they do not exist yet.
// River's own tables are managed separately via `river migrate-up`.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}

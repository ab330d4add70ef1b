package store

import (
	"fmt"

	"github.com/pocketbase/dbx"
)

// Tables, in dependency order.
var Tables = []string{"raffles", "participants", "artists", "raffle_artists", "tickets", "raffle_draws"}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS raffles (
		id               TEXT PRIMARY KEY NOT NULL,
		name             TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'draft',
		max_tickets      INTEGER NOT NULL DEFAULT 0,
		price_per_ticket TEXT NOT NULL DEFAULT '0',
		starts_at        TEXT NOT NULL DEFAULT '',
		ends_at          TEXT NOT NULL DEFAULT '',
		created          TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id               TEXT PRIMARY KEY NOT NULL,
		name             TEXT NOT NULL DEFAULT '',
		email            TEXT NOT NULL DEFAULT '',
		telegram_chat_id INTEGER NULL,
		created          TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		id      TEXT PRIMARY KEY NOT NULL,
		name    TEXT NOT NULL DEFAULT '',
		bio     TEXT NOT NULL DEFAULT '',
		image   TEXT NOT NULL DEFAULT '',
		created TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS raffle_artists (
		id                 TEXT PRIMARY KEY NOT NULL,
		raffle_id          TEXT NOT NULL REFERENCES raffles (id),
		artist_id          TEXT NOT NULL REFERENCES artists (id),
		winner_ticket_id   TEXT NOT NULL DEFAULT '',
		winner_selected_at TEXT NOT NULL DEFAULT '',
		created            TEXT NOT NULL DEFAULT '',
		UNIQUE (raffle_id, artist_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id             TEXT PRIMARY KEY NOT NULL,
		raffle_id      TEXT NOT NULL REFERENCES raffles (id),
		ticket_number  INTEGER NOT NULL,
		participant_id TEXT NOT NULL,
		artist_id      TEXT NOT NULL DEFAULT '',
		created        TEXT NOT NULL DEFAULT '',
		UNIQUE (raffle_id, ticket_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_participant ON tickets (raffle_id, participant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_artist ON tickets (raffle_id, artist_id)`,
	`CREATE TABLE IF NOT EXISTS raffle_draws (
		id               TEXT PRIMARY KEY NOT NULL,
		raffle_id        TEXT NOT NULL,
		artist_id        TEXT NOT NULL,
		raffle_artist_id TEXT NOT NULL,
		ticket_id        TEXT NOT NULL,
		ticket_number    INTEGER NOT NULL,
		participant_id   TEXT NOT NULL,
		pool_size        INTEGER NOT NULL,
		pool_digest      TEXT NOT NULL,
		drawn_at         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_raffle_draws_raffle ON raffle_draws (raffle_id)`,
}

// Migrate creates the raffle tables if they do not exist yet.
func Migrate(b dbx.Builder) error {
	for _, stmt := range schema {
		if _, err := b.NewQuery(stmt).Execute(); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Drop removes the raffle tables, newest first.
func Drop(b dbx.Builder) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := b.NewQuery("DROP TABLE IF EXISTS " + b.QuoteSimpleTableName(Tables[i])).Execute(); err != nil {
			return fmt.Errorf("drop %s: %w", Tables[i], err)
		}
	}
	return nil
}

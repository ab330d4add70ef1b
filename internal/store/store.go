// Package store gives the ledger a single way to reach the database,
// whether it runs inside the PocketBase app or against a bare SQLite file.
package store

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	_ "modernc.org/sqlite"
)

// Conn is the database handle used by the ledger.
type Conn interface {
	// Builder returns a non-transactional query builder.
	Builder() dbx.Builder
	// Transactional runs fn inside one database transaction. fn's error
	// rolls the transaction back.
	Transactional(ctx context.Context, fn func(b dbx.Builder) error) error
}

// pragmas applied to every standalone connection. Writers begin IMMEDIATE
// so concurrent transactions queue on the busy timeout instead of failing
// on lock upgrade.
const pragmas = "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"

// DB is a Conn over a bare SQLite database file.
type DB struct {
	db *dbx.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// the raffle schema.
func Open(path string) (*DB, error) {
	db, err := dbx.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func (d *DB) Builder() dbx.Builder {
	return d.db
}

func (d *DB) Transactional(ctx context.Context, fn func(b dbx.Builder) error) error {
	return d.db.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
		return fn(tx)
	})
}

func (d *DB) Close() error {
	return d.db.Close()
}

// App is a Conn over a PocketBase application's data database.
type App struct {
	app core.App
}

func NewApp(app core.App) *App {
	return &App{app: app}
}

func (a *App) Builder() dbx.Builder {
	return a.app.DB()
}

func (a *App) Transactional(ctx context.Context, fn func(b dbx.Builder) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.app.RunInTransaction(func(txApp core.App) error {
		return fn(txApp.DB())
	})
}

// Joined returns a Conn bound to an already open transaction. Its
// Transactional runs fn directly so nested calls share the outer commit.
func Joined(b dbx.Builder) Conn {
	return joined{b: b}
}

type joined struct {
	b dbx.Builder
}

func (j joined) Builder() dbx.Builder {
	return j.b
}

func (j joined) Transactional(_ context.Context, fn func(b dbx.Builder) error) error {
	return fn(j.b)
}

// Package ledgertest opens throwaway SQLite ledgers for tests.
package ledgertest

import (
	"context"
	"maps"
	"path/filepath"
	"slices"
	"testing"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/store"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Open returns a ledger over a fresh database file in t.TempDir().
func Open(t testing.TB) *ledger.DBLedger {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "raffle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return ledger.New(db)
}

// Fixture is a seeded raffle with named artists and participants.
type Fixture struct {
	Ledger       *ledger.DBLedger
	Raffle       *models.Raffle
	Artists      map[string]*models.Artist
	Participants map[string]*models.Participant
}

// Seed creates an active raffle with one artist per name in artists and one
// participant per entry in tickets, each issued the given number of
// tickets. Names double as ids so tests can refer to them directly.
func Seed(t testing.TB, l *ledger.DBLedger, artists []string, tickets map[string]int) *Fixture {
	t.Helper()
	ctx := context.Background()

	raffle := &models.Raffle{
		Name:           "Art Night",
		Status:         models.RaffleActive,
		PricePerTicket: decimal.RequireFromString("5.00"),
	}
	require.NoError(t, l.CreateRaffle(ctx, raffle))

	f := &Fixture{
		Ledger:       l,
		Raffle:       raffle,
		Artists:      make(map[string]*models.Artist),
		Participants: make(map[string]*models.Participant),
	}

	for _, name := range artists {
		a := &models.Artist{ID: name, Name: name}
		require.NoError(t, l.CreateArtist(ctx, a))
		_, err := l.AddArtistToRaffle(ctx, raffle.ID, a.ID)
		require.NoError(t, err)
		f.Artists[name] = a
	}

	// Issue in sorted participant order so ticket numbers are stable.
	for _, name := range slices.Sorted(maps.Keys(tickets)) {
		p := &models.Participant{ID: name, Name: name, Email: name + "@example.com"}
		require.NoError(t, l.CreateParticipant(ctx, p))
		if n := tickets[name]; n > 0 {
			_, err := l.IssueTickets(ctx, raffle.ID, p.ID, n)
			require.NoError(t, err)
		}
		f.Participants[name] = p
	}

	return f
}

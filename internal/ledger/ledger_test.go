package ledger_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger/ledgertest"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_ListTicketsForParticipant_OrderedByNumber(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A"}, map[string]int{"p1": 3, "p2": 2})
	ctx := context.Background()

	tickets, err := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 3)

	for i, tk := range tickets {
		assert.Equal(t, i+1, tk.TicketNumber)
		assert.Equal(t, "p1", tk.ParticipantID)
		assert.False(t, tk.IsAssigned())
	}

	other, err := f.Ledger.ListTicketsForParticipant(ctx, "p2", f.Raffle.ID)
	require.NoError(t, err)
	require.Len(t, other, 2)
	assert.Equal(t, 4, other[0].TicketNumber)
	assert.Equal(t, 5, other[1].TicketNumber)
}

func TestLedger_ListTicketsForParticipant_UnknownParticipant(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A"}, map[string]int{"p1": 1})

	tickets, err := f.Ledger.ListTicketsForParticipant(context.Background(), "nobody", f.Raffle.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestLedger_SetTicketArtist(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A", "B"}, map[string]int{"p1": 2})
	ctx := context.Background()

	tickets, err := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)
	require.NoError(t, err)

	require.NoError(t, f.Ledger.SetTicketArtist(ctx, tickets[0].ID, "A"))

	// A second write never overwrites the first.
	err = f.Ledger.SetTicketArtist(ctx, tickets[0].ID, "B")
	assert.ErrorIs(t, err, status.ErrAlreadyAssigned)

	err = f.Ledger.SetTicketArtist(ctx, tickets[0].ID, "A")
	assert.ErrorIs(t, err, status.ErrAlreadyAssigned)

	got, err := f.Ledger.GetTicket(ctx, tickets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.ArtistID)

	err = f.Ledger.SetTicketArtist(ctx, "missing-ticket", "A")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestLedger_SetTicketArtist_ConcurrentWritersOneWins(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A", "B", "C", "D"}, map[string]int{"p1": 1})
	ctx := context.Background()

	tickets, err := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)
	require.NoError(t, err)
	ticketID := tickets[0].ID

	var wg sync.WaitGroup
	var wins, conflicts atomic.Int32
	for _, artist := range []string{"A", "B", "C", "D"} {
		wg.Add(1)
		go func(artist string) {
			defer wg.Done()
			err := f.Ledger.SetTicketArtist(ctx, ticketID, artist)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, status.ErrAlreadyAssigned):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(artist)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(3), conflicts.Load())
}

func TestLedger_ListTicketsForArtist_AcrossParticipants(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A", "B"}, map[string]int{"p1": 2, "p2": 2})
	ctx := context.Background()

	p1, _ := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)
	p2, _ := f.Ledger.ListTicketsForParticipant(ctx, "p2", f.Raffle.ID)

	require.NoError(t, f.Ledger.SetTicketArtist(ctx, p2[1].ID, "A"))
	require.NoError(t, f.Ledger.SetTicketArtist(ctx, p1[0].ID, "A"))
	require.NoError(t, f.Ledger.SetTicketArtist(ctx, p1[1].ID, "B"))

	pool, err := f.Ledger.ListTicketsForArtist(ctx, f.Raffle.ID, "A")
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, p1[0].ID, pool[0].ID)
	assert.Equal(t, p2[1].ID, pool[1].ID)
	for _, tk := range pool {
		assert.Equal(t, "A", tk.ArtistID)
	}

	_, err = f.Ledger.ListTicketsForArtist(ctx, f.Raffle.ID, "")
	assert.ErrorIs(t, err, status.ErrUnknownArtist)
}

func TestLedger_CountTickets(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A", "B"}, map[string]int{"p1": 4, "p2": 1})
	ctx := context.Background()

	counts, err := f.Ledger.CountTickets(ctx, f.Raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TicketCounts{Total: 5, Assigned: 0, Unassigned: 5}, counts)

	p1, _ := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)
	require.NoError(t, f.Ledger.SetTicketArtist(ctx, p1[0].ID, "A"))
	require.NoError(t, f.Ledger.SetTicketArtist(ctx, p1[1].ID, "A"))
	require.NoError(t, f.Ledger.SetTicketArtist(ctx, p1[2].ID, "B"))

	counts, err = f.Ledger.CountTickets(ctx, f.Raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TicketCounts{Total: 5, Assigned: 3, Unassigned: 2}, counts)

	perArtist, err := f.Ledger.CountByArtist(ctx, f.Raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, perArtist)

	empty, err := f.Ledger.CountTickets(ctx, "no-such-raffle")
	require.NoError(t, err)
	assert.Equal(t, ledger.TicketCounts{}, empty)
}

func TestLedger_SetWinner_FirstWriteWins(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A"}, map[string]int{"p1": 2})
	ctx := context.Background()

	ra, err := f.Ledger.GetRaffleArtist(ctx, f.Raffle.ID, "A")
	require.NoError(t, err)
	assert.False(t, ra.HasWinner())

	p1, _ := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)
	at := types.NowDateTime()

	require.NoError(t, f.Ledger.SetWinner(ctx, ra.ID, p1[0].ID, at))
	err = f.Ledger.SetWinner(ctx, ra.ID, p1[1].ID, types.NowDateTime())
	assert.ErrorIs(t, err, status.ErrWinnerAlreadySelected)

	ra, err = f.Ledger.GetRaffleArtist(ctx, f.Raffle.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, p1[0].ID, ra.WinnerTicketID)
	assert.Equal(t, at.String(), ra.WinnerSelectedAt.String())
}

func TestLedger_GetRaffleArtist_Unknown(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A"}, nil)

	_, err := f.Ledger.GetRaffleArtist(context.Background(), f.Raffle.ID, "Z")
	assert.ErrorIs(t, err, status.ErrUnknownArtist)

	_, err = f.Ledger.GetRaffle(context.Background(), "missing")
	assert.ErrorIs(t, err, status.ErrRaffleNotFound)
}

func TestLedger_WithinTx_RollsBackOnError(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A"}, map[string]int{"p1": 2})
	ctx := context.Background()
	p1, _ := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)

	boom := errors.New("boom")
	err := f.Ledger.WithinTx(ctx, func(tx ledger.Ledger) error {
		require.NoError(t, tx.SetTicketArtist(ctx, p1[0].ID, "A"))

		// Nested calls join the outer transaction.
		return tx.WithinTx(ctx, func(inner ledger.Ledger) error {
			require.NoError(t, inner.SetTicketArtist(ctx, p1[1].ID, "A"))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	after, err := f.Ledger.ListTicketsForParticipant(ctx, "p1", f.Raffle.ID)
	require.NoError(t, err)
	for _, tk := range after {
		assert.False(t, tk.IsAssigned(), "ticket %d should have been rolled back", tk.TicketNumber)
	}
}

func TestLedger_RecordAndListDraws(t *testing.T) {
	f := ledgertest.Seed(t, ledgertest.Open(t), []string{"A"}, map[string]int{"p1": 1})
	ctx := context.Background()

	rec := &models.DrawRecord{
		ID:             "draw-1",
		RaffleID:       f.Raffle.ID,
		ArtistID:       "A",
		RaffleArtistID: "ra-1",
		TicketID:       "t-1",
		TicketNumber:   1,
		ParticipantID:  "p1",
		PoolSize:       1,
		PoolDigest:     "abc",
		DrawnAt:        types.NowDateTime(),
	}
	require.NoError(t, f.Ledger.RecordDraw(ctx, rec))

	draws, err := f.Ledger.ListDraws(ctx, f.Raffle.ID)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, "draw-1", draws[0].ID)
	assert.Equal(t, "abc", draws[0].PoolDigest)
	assert.Equal(t, 1, draws[0].PoolSize)
}

func TestLedger_IssueTickets_RespectsLimit(t *testing.T) {
	l := ledgertest.Open(t)
	ctx := context.Background()

	raffle := &models.Raffle{Name: "Small", Status: models.RaffleActive, MaxTickets: 3}
	require.NoError(t, l.CreateRaffle(ctx, raffle))

	issued, err := l.IssueTickets(ctx, raffle.ID, "p1", 2)
	require.NoError(t, err)
	require.Len(t, issued, 2)

	_, err = l.IssueTickets(ctx, raffle.ID, "p2", 2)
	assert.ErrorIs(t, err, status.ErrTicketLimitReached)

	more, err := l.IssueTickets(ctx, raffle.ID, "p2", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, more[0].TicketNumber)
}

func TestLedger_ListRafflesByStatus(t *testing.T) {
	l := ledgertest.Open(t)
	ctx := context.Background()

	for _, r := range []*models.Raffle{
		{Name: "one", Status: models.RaffleActive},
		{Name: "two", Status: models.RaffleDraft},
		{Name: "three", Status: models.RaffleEnded},
	} {
		require.NoError(t, l.CreateRaffle(ctx, r))
	}

	got, err := l.ListRafflesByStatus(ctx, models.RaffleActive, models.RaffleEnded)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.NotEqual(t, models.RaffleDraft, r.Status)
	}
}

// Package ledger is the single source of truth for raffle ticket ownership
// and allocation state. Every read goes to the database; nothing is cached
// between calls.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/store"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/types"
)

// Ledger is the storage contract used by the allocation, draw and stats
// services.
type Ledger interface {
	// WithinTx runs fn against a ledger bound to one transaction. Calls made
	// on an already transactional ledger join the outer transaction.
	WithinTx(ctx context.Context, fn func(tx Ledger) error) error

	GetRaffle(ctx context.Context, raffleID string) (*models.Raffle, error)
	ListRafflesByStatus(ctx context.Context, statuses ...models.RaffleStatus) ([]models.Raffle, error)
	GetArtist(ctx context.Context, artistID string) (*models.Artist, error)
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)
	GetRaffleArtist(ctx context.Context, raffleID, artistID string) (*models.RaffleArtist, error)
	ListRaffleArtists(ctx context.Context, raffleID string) ([]models.RaffleArtist, error)

	GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error)
	ListTicketsForParticipant(ctx context.Context, participantID, raffleID string) ([]models.Ticket, error)
	ListTicketsForArtist(ctx context.Context, raffleID, artistID string) ([]models.Ticket, error)
	SetTicketArtist(ctx context.Context, ticketID, artistID string) error

	CountTickets(ctx context.Context, raffleID string) (TicketCounts, error)
	CountByArtist(ctx context.Context, raffleID string) (map[string]int, error)

	SetWinner(ctx context.Context, raffleArtistID, ticketID string, at types.DateTime) error
	RecordDraw(ctx context.Context, record *models.DrawRecord) error
	ListDraws(ctx context.Context, raffleID string) ([]models.DrawRecord, error)
}

// TicketCounts holds the three raffle-wide buckets, each counted on its
// own so callers can cross-check them.
type TicketCounts struct {
	Total      int `db:"total"`
	Assigned   int `db:"assigned"`
	Unassigned int `db:"unassigned"`
}

type DBLedger struct {
	conn store.Conn
}

var _ Ledger = (*DBLedger)(nil)

func New(conn store.Conn) *DBLedger {
	return &DBLedger{conn: conn}
}

func (l *DBLedger) db() dbx.Builder {
	return l.conn.Builder()
}

func (l *DBLedger) WithinTx(ctx context.Context, fn func(tx Ledger) error) error {
	return l.conn.Transactional(ctx, func(b dbx.Builder) error {
		return fn(&DBLedger{conn: store.Joined(b)})
	})
}

func (l *DBLedger) GetRaffle(ctx context.Context, raffleID string) (*models.Raffle, error) {
	var r models.Raffle
	err := l.db().Select("*").From("raffles").
		Where(dbx.HashExp{"id": raffleID}).
		WithContext(ctx).
		One(&r)
	if err != nil {
		return nil, notFound(err, status.ErrRaffleNotFound, "get raffle")
	}
	return &r, nil
}

func (l *DBLedger) ListRafflesByStatus(ctx context.Context, statuses ...models.RaffleStatus) ([]models.Raffle, error) {
	in := make([]any, len(statuses))
	for i, s := range statuses {
		in[i] = string(s)
	}

	var raffles []models.Raffle
	err := l.db().Select("*").From("raffles").
		Where(dbx.In("status", in...)).
		OrderBy("created ASC", "id ASC").
		WithContext(ctx).
		All(&raffles)
	if err != nil {
		return nil, fmt.Errorf("list raffles: %w", err)
	}
	return raffles, nil
}

func (l *DBLedger) GetArtist(ctx context.Context, artistID string) (*models.Artist, error) {
	var a models.Artist
	err := l.db().Select("*").From("artists").
		Where(dbx.HashExp{"id": artistID}).
		WithContext(ctx).
		One(&a)
	if err != nil {
		return nil, notFound(err, status.ErrUnknownArtist, "get artist")
	}
	return &a, nil
}

func (l *DBLedger) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	var p models.Participant
	err := l.db().Select("*").From("participants").
		Where(dbx.HashExp{"id": participantID}).
		WithContext(ctx).
		One(&p)
	if err != nil {
		return nil, notFound(err, status.ErrParticipantNotFound, "get participant")
	}
	return &p, nil
}

func (l *DBLedger) GetRaffleArtist(ctx context.Context, raffleID, artistID string) (*models.RaffleArtist, error) {
	var ra models.RaffleArtist
	err := l.db().Select("*").From("raffle_artists").
		Where(dbx.HashExp{"raffle_id": raffleID, "artist_id": artistID}).
		WithContext(ctx).
		One(&ra)
	if err != nil {
		return nil, notFound(err, status.ErrUnknownArtist, "get raffle artist")
	}
	return &ra, nil
}

func (l *DBLedger) ListRaffleArtists(ctx context.Context, raffleID string) ([]models.RaffleArtist, error) {
	var ras []models.RaffleArtist
	err := l.db().Select("*").From("raffle_artists").
		Where(dbx.HashExp{"raffle_id": raffleID}).
		OrderBy("artist_id ASC").
		WithContext(ctx).
		All(&ras)
	if err != nil {
		return nil, fmt.Errorf("list raffle artists: %w", err)
	}
	return ras, nil
}

func (l *DBLedger) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var t models.Ticket
	err := l.db().Select("*").From("tickets").
		Where(dbx.HashExp{"id": ticketID}).
		WithContext(ctx).
		One(&t)
	if err != nil {
		return nil, notFound(err, status.ErrTicketNotFound, "get ticket")
	}
	return &t, nil
}

// ListTicketsForParticipant returns every ticket the participant owns in
// the raffle, assigned or not, ordered by ticket number.
func (l *DBLedger) ListTicketsForParticipant(ctx context.Context, participantID, raffleID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := l.db().Select("*").From("tickets").
		Where(dbx.HashExp{"raffle_id": raffleID, "participant_id": participantID}).
		OrderBy("ticket_number ASC").
		WithContext(ctx).
		All(&tickets)
	if err != nil {
		return nil, fmt.Errorf("list participant tickets: %w", err)
	}
	return tickets, nil
}

// ListTicketsForArtist returns the draw pool for an artist: every ticket
// in the raffle assigned to them, across all participants.
func (l *DBLedger) ListTicketsForArtist(ctx context.Context, raffleID, artistID string) ([]models.Ticket, error) {
	if artistID == "" {
		return nil, status.ErrUnknownArtist
	}

	var tickets []models.Ticket
	err := l.db().Select("*").From("tickets").
		Where(dbx.HashExp{"raffle_id": raffleID, "artist_id": artistID}).
		OrderBy("ticket_number ASC").
		WithContext(ctx).
		All(&tickets)
	if err != nil {
		return nil, fmt.Errorf("list artist tickets: %w", err)
	}
	return tickets, nil
}

// SetTicketArtist assigns an unassigned ticket. The write only lands while
// artist_id is still empty, so an assignment is never overwritten.
func (l *DBLedger) SetTicketArtist(ctx context.Context, ticketID, artistID string) error {
	if artistID == "" {
		return status.ErrUnknownArtist
	}

	res, err := l.db().Update("tickets",
		dbx.Params{"artist_id": artistID},
		dbx.HashExp{"id": ticketID, "artist_id": ""},
	).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("assign ticket %s: %w", ticketID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assign ticket %s: %w", ticketID, err)
	}
	if n == 1 {
		return nil
	}

	if _, err := l.GetTicket(ctx, ticketID); err != nil {
		return err
	}
	return status.ErrAlreadyAssigned
}

func (l *DBLedger) CountTickets(ctx context.Context, raffleID string) (TicketCounts, error) {
	var c TicketCounts
	err := l.db().NewQuery(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN artist_id != '' THEN 1 ELSE 0 END), 0) AS assigned,
			COALESCE(SUM(CASE WHEN artist_id = '' THEN 1 ELSE 0 END), 0) AS unassigned
		FROM tickets
		WHERE raffle_id = {:raffle}`).
		Bind(dbx.Params{"raffle": raffleID}).
		WithContext(ctx).
		One(&c)
	if err != nil {
		return TicketCounts{}, fmt.Errorf("count tickets: %w", err)
	}
	return c, nil
}

// CountByArtist groups assigned tickets by artist. Artists with no tickets
// are absent from the result.
func (l *DBLedger) CountByArtist(ctx context.Context, raffleID string) (map[string]int, error) {
	var rows []struct {
		ArtistID string `db:"artist_id"`
		Count    int    `db:"n"`
	}
	err := l.db().NewQuery(`
		SELECT artist_id, COUNT(*) AS n
		FROM tickets
		WHERE raffle_id = {:raffle} AND artist_id != ''
		GROUP BY artist_id`).
		Bind(dbx.Params{"raffle": raffleID}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("count tickets by artist: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.ArtistID] = r.Count
	}
	return counts, nil
}

// SetWinner records the winning ticket for a raffle artist. Only the first
// write succeeds; later ones get ErrWinnerAlreadySelected.
func (l *DBLedger) SetWinner(ctx context.Context, raffleArtistID, ticketID string, at types.DateTime) error {
	res, err := l.db().Update("raffle_artists",
		dbx.Params{"winner_ticket_id": ticketID, "winner_selected_at": at},
		dbx.HashExp{"id": raffleArtistID, "winner_ticket_id": ""},
	).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("set winner: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set winner: %w", err)
	}
	if n == 0 {
		return status.ErrWinnerAlreadySelected
	}
	return nil
}

func (l *DBLedger) RecordDraw(ctx context.Context, record *models.DrawRecord) error {
	_, err := l.db().Insert("raffle_draws", dbx.Params{
		"id":               record.ID,
		"raffle_id":        record.RaffleID,
		"artist_id":        record.ArtistID,
		"raffle_artist_id": record.RaffleArtistID,
		"ticket_id":        record.TicketID,
		"ticket_number":    record.TicketNumber,
		"participant_id":   record.ParticipantID,
		"pool_size":        record.PoolSize,
		"pool_digest":      record.PoolDigest,
		"drawn_at":         record.DrawnAt,
	}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("record draw: %w", err)
	}
	return nil
}

func (l *DBLedger) ListDraws(ctx context.Context, raffleID string) ([]models.DrawRecord, error) {
	var draws []models.DrawRecord
	err := l.db().Select("*").From("raffle_draws").
		Where(dbx.HashExp{"raffle_id": raffleID}).
		OrderBy("drawn_at ASC", "artist_id ASC").
		WithContext(ctx).
		All(&draws)
	if err != nil {
		return nil, fmt.Errorf("list draws: %w", err)
	}
	return draws, nil
}

func notFound(err error, sentinel error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

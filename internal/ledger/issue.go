package ledger

import (
	"context"
	"fmt"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"
	"github.com/buidl-renaissance/art-night-detroit-sub000/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/tools/types"
)

// The helpers below stand in for the issuance side of the system (ticket
// purchase, artist curation). They are used for seeding and tests.

func (l *DBLedger) CreateRaffle(ctx context.Context, r *models.Raffle) error {
	if r.ID == "" {
		r.ID = utils.NewRecordID()
	}
	if r.Status == "" {
		r.Status = models.RaffleDraft
	}
	if r.Created.IsZero() {
		r.Created = types.NowDateTime()
	}

	_, err := l.db().Insert("raffles", dbx.Params{
		"id":               r.ID,
		"name":             r.Name,
		"status":           string(r.Status),
		"max_tickets":      r.MaxTickets,
		"price_per_ticket": r.PricePerTicket.String(),
		"starts_at":        r.StartsAt,
		"ends_at":          r.EndsAt,
		"created":          r.Created,
	}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("create raffle: %w", err)
	}
	return nil
}

// SetRaffleStatus is the external status transition hook.
func (l *DBLedger) SetRaffleStatus(ctx context.Context, raffleID string, s models.RaffleStatus) error {
	res, err := l.db().Update("raffles",
		dbx.Params{"status": string(s)},
		dbx.HashExp{"id": raffleID},
	).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("set raffle status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.ErrRaffleNotFound
	}
	return nil
}

func (l *DBLedger) CreateArtist(ctx context.Context, a *models.Artist) error {
	if a.ID == "" {
		a.ID = utils.NewRecordID()
	}
	if a.Created.IsZero() {
		a.Created = types.NowDateTime()
	}

	_, err := l.db().Insert("artists", dbx.Params{
		"id":      a.ID,
		"name":    a.Name,
		"bio":     a.Bio,
		"image":   a.Image,
		"created": a.Created,
	}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("create artist: %w", err)
	}
	return nil
}

func (l *DBLedger) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = utils.NewRecordID()
	}
	if p.Created.IsZero() {
		p.Created = types.NowDateTime()
	}

	_, err := l.db().Insert("participants", dbx.Params{
		"id":               p.ID,
		"name":             p.Name,
		"email":            p.Email,
		"telegram_chat_id": p.TelegramChatID,
		"created":          p.Created,
	}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (l *DBLedger) AddArtistToRaffle(ctx context.Context, raffleID, artistID string) (*models.RaffleArtist, error) {
	ra := &models.RaffleArtist{
		ID:       utils.NewRecordID(),
		RaffleID: raffleID,
		ArtistID: artistID,
		Created:  types.NowDateTime(),
	}

	_, err := l.db().Insert("raffle_artists", dbx.Params{
		"id":        ra.ID,
		"raffle_id": ra.RaffleID,
		"artist_id": ra.ArtistID,
		"created":   ra.Created,
	}).WithContext(ctx).Execute()
	if err != nil {
		return nil, fmt.Errorf("add artist to raffle: %w", err)
	}
	return ra, nil
}

// IssueTickets creates n unassigned tickets for the participant, numbered
// after the raffle's current highest ticket number.
func (l *DBLedger) IssueTickets(ctx context.Context, raffleID, participantID string, n int) ([]models.Ticket, error) {
	var issued []models.Ticket

	err := l.WithinTx(ctx, func(tx Ledger) error {
		txl := tx.(*DBLedger)

		raffle, err := txl.GetRaffle(ctx, raffleID)
		if err != nil {
			return err
		}

		var last struct {
			Max   int `db:"max_number"`
			Count int `db:"n"`
		}
		err = txl.db().NewQuery(`
			SELECT COALESCE(MAX(ticket_number), 0) AS max_number, COUNT(*) AS n
			FROM tickets WHERE raffle_id = {:raffle}`).
			Bind(dbx.Params{"raffle": raffleID}).
			WithContext(ctx).
			One(&last)
		if err != nil {
			return fmt.Errorf("issue tickets: %w", err)
		}

		if raffle.MaxTickets > 0 && last.Count+n > raffle.MaxTickets {
			return status.ErrTicketLimitReached
		}

		now := types.NowDateTime()
		for i := 1; i <= n; i++ {
			t := models.Ticket{
				ID:            utils.NewRecordID(),
				RaffleID:      raffleID,
				TicketNumber:  last.Max + i,
				ParticipantID: participantID,
				Created:       now,
			}
			_, err := txl.db().Insert("tickets", dbx.Params{
				"id":             t.ID,
				"raffle_id":      t.RaffleID,
				"ticket_number":  t.TicketNumber,
				"participant_id": t.ParticipantID,
				"artist_id":      "",
				"created":        t.Created,
			}).WithContext(ctx).Execute()
			if err != nil {
				return fmt.Errorf("issue ticket %d: %w", t.TicketNumber, err)
			}
			issued = append(issued, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

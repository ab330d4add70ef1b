package models

import (
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/shopspring/decimal"
)

type RaffleStatus string

const (
	RaffleDraft  RaffleStatus = "draft"
	RaffleActive RaffleStatus = "active"
	RaffleEnded  RaffleStatus = "ended"
)

type Raffle struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Status         RaffleStatus    `db:"status" json:"status"` // draft, active, ended
	MaxTickets     int             `db:"max_tickets" json:"max_tickets"`
	PricePerTicket decimal.Decimal `db:"price_per_ticket" json:"price_per_ticket"`
	StartsAt       types.DateTime  `db:"starts_at" json:"starts_at"`
	EndsAt         types.DateTime  `db:"ends_at" json:"ends_at"`
	Created        types.DateTime  `db:"created" json:"created"`
}

// AcceptsAllocations reports whether participants may still move tickets
// onto artists.
func (r *Raffle) AcceptsAllocations() bool {
	return r.Status == RaffleActive
}

// AcceptsDraws reports whether winners may be drawn. Ended raffles are the
// normal case; active ones are allowed so admins can draw live.
func (r *Raffle) AcceptsDraws() bool {
	return r.Status == RaffleActive || r.Status == RaffleEnded
}

type Artist struct {
	ID      string         `db:"id" json:"id"`
	Name    string         `db:"name" json:"name"`
	Bio     string         `db:"bio" json:"bio"`
	Image   string         `db:"image" json:"image"`
	Created types.DateTime `db:"created" json:"created"`
}

// RaffleArtist binds an artist to a raffle and carries that pairing's
// winner. WinnerTicketID is empty until a draw commits and never changes
// afterwards.
type RaffleArtist struct {
	ID               string         `db:"id" json:"id"`
	RaffleID         string         `db:"raffle_id" json:"raffle_id"`
	ArtistID         string         `db:"artist_id" json:"artist_id"`
	WinnerTicketID   string         `db:"winner_ticket_id" json:"winner_ticket_id,omitempty"`
	WinnerSelectedAt types.DateTime `db:"winner_selected_at" json:"winner_selected_at"`
	Created          types.DateTime `db:"created" json:"created"`
}

func (ra *RaffleArtist) HasWinner() bool {
	return ra.WinnerTicketID != ""
}

package models

import (
	"github.com/pocketbase/pocketbase/tools/types"
)

type Ticket struct {
	ID            string         `db:"id" json:"id"`
	RaffleID      string         `db:"raffle_id" json:"raffle_id"`
	TicketNumber  int            `db:"ticket_number" json:"ticket_number"`
	ParticipantID string         `db:"participant_id" json:"participant_id"`
	ArtistID      string         `db:"artist_id" json:"artist_id,omitempty"` // empty while unassigned
	Created       types.DateTime `db:"created" json:"created"`
}

func (t *Ticket) IsAssigned() bool {
	return t.ArtistID != ""
}

// TicketIDs returns the ids of tickets in their current order.
func TicketIDs(tickets []Ticket) []string {
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	return ids
}

package models

import "github.com/pocketbase/pocketbase/tools/types"

// DrawRecord is the append-only audit row written with every committed
// winner selection.
type DrawRecord struct {
	ID             string         `db:"id" json:"id"`
	RaffleID       string         `db:"raffle_id" json:"raffle_id"`
	ArtistID       string         `db:"artist_id" json:"artist_id"`
	RaffleArtistID string         `db:"raffle_artist_id" json:"raffle_artist_id"`
	TicketID       string         `db:"ticket_id" json:"ticket_id"`
	TicketNumber   int            `db:"ticket_number" json:"ticket_number"`
	ParticipantID  string         `db:"participant_id" json:"participant_id"`
	PoolSize       int            `db:"pool_size" json:"pool_size"`
	PoolDigest     string         `db:"pool_digest" json:"pool_digest"`
	DrawnAt        types.DateTime `db:"drawn_at" json:"drawn_at"`
}

type WinnerResult struct {
	RaffleID        string         `json:"raffle_id"`
	ArtistID        string         `json:"artist_id"`
	TicketID        string         `json:"ticket_id"`
	TicketNumber    int            `json:"ticket_number"`
	ParticipantID   string         `json:"participant_id"`
	SelectedAt      types.DateTime `json:"selected_at"`
	AlreadySelected bool           `json:"already_selected"`
	PoolSize        int            `json:"pool_size,omitempty"`
	PoolDigest      string         `json:"pool_digest,omitempty"`
}

// WinnerNotice is what gets handed to notification sinks after a draw
// commits.
type WinnerNotice struct {
	RaffleID      string `json:"raffle_id"`
	RaffleName    string `json:"raffle_name"`
	ArtistID      string `json:"artist_id"`
	ArtistName    string `json:"artist_name"`
	TicketID      string `json:"ticket_id"`
	TicketNumber  int    `json:"ticket_number"`
	ParticipantID string `json:"participant_id"`
	Participant   string `json:"participant_name"`
	Email         string `json:"email"`
	ChatID        *int64 `json:"telegram_chat_id,omitempty"`
	SelectedAt    string `json:"selected_at"`
}

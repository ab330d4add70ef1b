package status

import "errors"

var (
	ErrRaffleNotFound      = errors.New("raffle: raffle not found")
	ErrRaffleClosed        = errors.New("raffle: raffle has ended")
	ErrRaffleNotOpen       = errors.New("raffle: raffle is not open yet")
	ErrUnknownArtist       = errors.New("raffle: artist is not part of this raffle")
	ErrParticipantNotFound = errors.New("participant: participant not found")

	ErrTicketNotFound     = errors.New("ticket: ticket not found")
	ErrAlreadyAssigned    = errors.New("ticket: ticket already assigned")
	ErrTicketLimitReached = errors.New("ticket: raffle ticket limit reached")

	ErrInvalidQuantity               = errors.New("allocation: quantity must not be negative")
	ErrInsufficientUnassignedTickets = errors.New("allocation: not enough unassigned tickets")
	ErrConcurrentAllocationConflict  = errors.New("allocation: tickets changed concurrently, refresh and retry")

	ErrWinnerAlreadySelected = errors.New("draw: winner already selected")
	ErrNoEligibleTickets     = errors.New("draw: no tickets assigned to artist")

	ErrStatsInconsistent = errors.New("stats: ticket counts do not add up")
	ErrRateLimited       = errors.New("rate limit: too many requests")
)

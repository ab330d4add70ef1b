package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"
	"github.com/buidl-renaissance/art-night-detroit-sub000/monitoring"
)

type AllocationService struct {
	ledger ledger.Ledger
	logger *slog.Logger
}

func NewAllocationService(l ledger.Ledger, logger *slog.Logger) *AllocationService {
	return &AllocationService{ledger: l, logger: logger}
}

// Allocate moves the participant's unassigned tickets onto artists, quantity
// per artist as given in requests. The whole request commits or nothing
// does. Tickets are consumed in ticket-number order and artists are served
// in ascending id order, so identical inputs over identical state always
// pick the same tickets.
func (s *AllocationService) Allocate(ctx context.Context, participantID, raffleID string, requests map[string]int) (*models.Allocation, error) {
	var result *models.Allocation

	err := s.ledger.WithinTx(ctx, func(tx ledger.Ledger) error {
		raffle, err := tx.GetRaffle(ctx, raffleID)
		if err != nil {
			return err
		}
		switch raffle.Status {
		case models.RaffleActive:
		case models.RaffleEnded:
			return status.ErrRaffleClosed
		default:
			return status.ErrRaffleNotOpen
		}

		artistIDs := slices.Sorted(maps.Keys(requests))

		for _, artistID := range artistIDs {
			q := requests[artistID]
			if q < 0 {
				return fmt.Errorf("%w: %d for artist %s", status.ErrInvalidQuantity, q, artistID)
			}
			if _, err := tx.GetRaffleArtist(ctx, raffleID, artistID); err != nil {
				if errors.Is(err, status.ErrUnknownArtist) {
					return fmt.Errorf("%w: %s", status.ErrUnknownArtist, artistID)
				}
				return err
			}
		}

		owned, err := tx.ListTicketsForParticipant(ctx, participantID, raffleID)
		if err != nil {
			return err
		}
		unassigned := make([]models.Ticket, 0, len(owned))
		for _, t := range owned {
			if !t.IsAssigned() {
				unassigned = append(unassigned, t)
			}
		}

		// Compare against what is left instead of summing first, so huge
		// quantities cannot overflow the total.
		requested := 0
		for _, artistID := range artistIDs {
			q := requests[artistID]
			if q > len(unassigned)-requested {
				return fmt.Errorf("%w: %d available", status.ErrInsufficientUnassignedTickets, len(unassigned))
			}
			requested += q
		}

		result = &models.Allocation{
			RaffleID:      raffleID,
			ParticipantID: participantID,
			Assigned:      make(map[string][]models.Ticket),
		}

		next := 0
		for _, artistID := range artistIDs {
			for range requests[artistID] {
				t := unassigned[next]
				next++

				if err := tx.SetTicketArtist(ctx, t.ID, artistID); err != nil {
					if errors.Is(err, status.ErrAlreadyAssigned) || errors.Is(err, status.ErrTicketNotFound) {
						return fmt.Errorf("%w: ticket #%d", status.ErrConcurrentAllocationConflict, t.TicketNumber)
					}
					return err
				}

				t.ArtistID = artistID
				result.Assigned[artistID] = append(result.Assigned[artistID], t)
			}
		}
		result.Remaining = len(unassigned) - next

		return nil
	})
	if err != nil {
		monitoring.TrackAllocation(raffleID, outcome(err), 0)
		s.logger.Warn("allocation rejected",
			"raffle_id", raffleID,
			"participant_id", participantID,
			"error", err,
		)
		return nil, err
	}

	monitoring.TrackAllocation(raffleID, "success", result.Count())
	s.logger.Info("tickets allocated",
		"raffle_id", raffleID,
		"participant_id", participantID,
		"tickets", result.Count(),
		"remaining", result.Remaining,
	)

	return result, nil
}

// outcome maps an error onto a short metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, status.ErrInsufficientUnassignedTickets):
		return "insufficient"
	case errors.Is(err, status.ErrConcurrentAllocationConflict):
		return "conflict"
	case errors.Is(err, status.ErrUnknownArtist):
		return "unknown_artist"
	case errors.Is(err, status.ErrRaffleClosed), errors.Is(err, status.ErrRaffleNotOpen):
		return "closed"
	case errors.Is(err, status.ErrNoEligibleTickets):
		return "empty_pool"
	case errors.Is(err, status.ErrInvalidQuantity), errors.Is(err, status.ErrRaffleNotFound):
		return "invalid"
	default:
		return "error"
	}
}

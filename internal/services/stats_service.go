package services

import (
	"context"
	"log/slog"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"
)

type StatsService struct {
	ledger ledger.Ledger
	logger *slog.Logger
}

func NewStatsService(l ledger.Ledger, logger *slog.Logger) *StatsService {
	return &StatsService{ledger: l, logger: logger}
}

// ComputeStats reads the raffle's ticket distribution in one transaction.
// A result whose buckets do not add up is still returned, together with
// ErrStatsInconsistent.
func (s *StatsService) ComputeStats(ctx context.Context, raffleID string) (*models.Stats, error) {
	var stats *models.Stats

	err := s.ledger.WithinTx(ctx, func(tx ledger.Ledger) error {
		if _, err := tx.GetRaffle(ctx, raffleID); err != nil {
			return err
		}

		counts, err := tx.CountTickets(ctx, raffleID)
		if err != nil {
			return err
		}
		perArtist, err := tx.CountByArtist(ctx, raffleID)
		if err != nil {
			return err
		}
		ras, err := tx.ListRaffleArtists(ctx, raffleID)
		if err != nil {
			return err
		}

		stats = &models.Stats{
			RaffleID:   raffleID,
			Total:      counts.Total,
			Assigned:   counts.Assigned,
			Unassigned: counts.Unassigned,
			PerArtist:  make(map[string]int, len(ras)),
			Winners:    make(map[string]string),
		}
		for _, ra := range ras {
			stats.PerArtist[ra.ArtistID] = perArtist[ra.ArtistID]
			if ra.HasWinner() {
				stats.Winners[ra.ArtistID] = ra.WinnerTicketID
			}
		}
		// Tickets pointing at an artist outside the raffle still count, so
		// the mismatch shows up below instead of being hidden.
		for artistID, n := range perArtist {
			if _, ok := stats.PerArtist[artistID]; !ok {
				stats.PerArtist[artistID] = n
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !stats.Consistent() {
		s.logger.Error("raffle stats inconsistent",
			"raffle_id", raffleID,
			"total", stats.Total,
			"assigned", stats.Assigned,
			"unassigned", stats.Unassigned,
		)
		return stats, status.ErrStatsInconsistent
	}

	return stats, nil
}

// ComputeParticipantStats summarizes one participant's tickets, which is
// what the allocation screen uses as remaining capacity.
func (s *StatsService) ComputeParticipantStats(ctx context.Context, participantID, raffleID string) (*models.ParticipantStats, error) {
	var ps *models.ParticipantStats

	err := s.ledger.WithinTx(ctx, func(tx ledger.Ledger) error {
		if _, err := tx.GetRaffle(ctx, raffleID); err != nil {
			return err
		}

		tickets, err := tx.ListTicketsForParticipant(ctx, participantID, raffleID)
		if err != nil {
			return err
		}

		ps = &models.ParticipantStats{
			ParticipantID: participantID,
			RaffleID:      raffleID,
			Owned:         len(tickets),
			PerArtist:     make(map[string]int),
			Tickets:       tickets,
		}
		if ps.Tickets == nil {
			ps.Tickets = []models.Ticket{}
		}
		for _, t := range tickets {
			if t.IsAssigned() {
				ps.Assigned++
				ps.PerArtist[t.ArtistID]++
			} else {
				ps.Unassigned++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ps, nil
}

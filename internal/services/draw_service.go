package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"
	"github.com/buidl-renaissance/art-night-detroit-sub000/monitoring"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/tools/types"
)

// WinnerNotifier delivers a committed draw to the outside world. Delivery
// failures are logged and never undo the draw.
type WinnerNotifier interface {
	NotifyWinner(ctx context.Context, notice models.WinnerNotice) error
}

type DrawService struct {
	ledger   ledger.Ledger
	notifier WinnerNotifier
	logger   *slog.Logger

	intn func(n int) int
	now  func() types.DateTime

	notifyTimeout time.Duration
}

type DrawOption func(*DrawService)

// WithRandomSource replaces the uniform index source. intn must return a
// value in [0, n).
func WithRandomSource(intn func(n int) int) DrawOption {
	return func(s *DrawService) { s.intn = intn }
}

func WithClock(now func() types.DateTime) DrawOption {
	return func(s *DrawService) { s.now = now }
}

func WithNotifyTimeout(d time.Duration) DrawOption {
	return func(s *DrawService) { s.notifyTimeout = d }
}

func NewDrawService(l ledger.Ledger, notifier WinnerNotifier, logger *slog.Logger, opts ...DrawOption) *DrawService {
	s := &DrawService{
		ledger:        l,
		notifier:      notifier,
		logger:        logger,
		intn:          rand.IntN,
		now:           types.NowDateTime,
		notifyTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectWinner draws one ticket uniformly at random from the artist's
// current pool and records it as the winner. A pair that already has a
// winner is returned as is with AlreadySelected set, so retries are safe.
func (s *DrawService) SelectWinner(ctx context.Context, raffleID, artistID string) (*models.WinnerResult, error) {
	var (
		result *models.WinnerResult
		notice *models.WinnerNotice
	)

	err := s.ledger.WithinTx(ctx, func(tx ledger.Ledger) error {
		raffle, err := tx.GetRaffle(ctx, raffleID)
		if err != nil {
			return err
		}
		if !raffle.AcceptsDraws() {
			return status.ErrRaffleNotOpen
		}

		ra, err := tx.GetRaffleArtist(ctx, raffleID, artistID)
		if err != nil {
			return err
		}
		if ra.HasWinner() {
			result, err = existingWinner(ctx, tx, ra)
			return err
		}

		pool, err := tx.ListTicketsForArtist(ctx, raffleID, artistID)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return status.ErrNoEligibleTickets
		}

		idx := s.intn(len(pool))
		if idx < 0 || idx >= len(pool) {
			return fmt.Errorf("draw: random source returned %d for pool of %d", idx, len(pool))
		}
		winner := pool[idx]
		at := s.now()

		if err := tx.SetWinner(ctx, ra.ID, winner.ID, at); err != nil {
			if !errors.Is(err, status.ErrWinnerAlreadySelected) {
				return err
			}
			// Someone else committed first; report theirs.
			ra, err = tx.GetRaffleArtist(ctx, raffleID, artistID)
			if err != nil {
				return err
			}
			result, err = existingWinner(ctx, tx, ra)
			return err
		}

		digest := PoolDigest(pool)
		err = tx.RecordDraw(ctx, &models.DrawRecord{
			ID:             uuid.NewString(),
			RaffleID:       raffleID,
			ArtistID:       artistID,
			RaffleArtistID: ra.ID,
			TicketID:       winner.ID,
			TicketNumber:   winner.TicketNumber,
			ParticipantID:  winner.ParticipantID,
			PoolSize:       len(pool),
			PoolDigest:     digest,
			DrawnAt:        at,
		})
		if err != nil {
			return err
		}

		result = &models.WinnerResult{
			RaffleID:      raffleID,
			ArtistID:      artistID,
			TicketID:      winner.ID,
			TicketNumber:  winner.TicketNumber,
			ParticipantID: winner.ParticipantID,
			SelectedAt:    at,
			PoolSize:      len(pool),
			PoolDigest:    digest,
		}
		if s.notifier != nil {
			notice = s.buildNotice(ctx, tx, raffle, result)
		}

		return nil
	})
	if err != nil {
		monitoring.TrackDraw(raffleID, outcome(err))
		s.logger.Warn("draw failed",
			"raffle_id", raffleID,
			"artist_id", artistID,
			"error", err,
		)
		return nil, err
	}

	if result.AlreadySelected {
		monitoring.TrackDraw(raffleID, "already_selected")
		return result, nil
	}

	monitoring.TrackDraw(raffleID, "success")
	monitoring.ObservePoolSize(result.PoolSize)
	s.logger.Info("winner selected",
		"raffle_id", raffleID,
		"artist_id", artistID,
		"ticket_number", result.TicketNumber,
		"pool_size", result.PoolSize,
		"pool_digest", result.PoolDigest,
	)

	if notice != nil {
		go s.notify(context.WithoutCancel(ctx), *notice)
	}

	return result, nil
}

// DrawOutcome is one artist's result inside DrawAll.
type DrawOutcome struct {
	ArtistID string               `json:"artist_id"`
	Winner   *models.WinnerResult `json:"winner,omitempty"`
	Skipped  string               `json:"skipped,omitempty"`
}

// DrawAll runs SelectWinner for every artist of the raffle. Artists with an
// empty pool are skipped; other failures are joined into the returned error
// without stopping the remaining draws.
func (s *DrawService) DrawAll(ctx context.Context, raffleID string) ([]DrawOutcome, error) {
	ras, err := s.ledger.ListRaffleArtists(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if len(ras) == 0 {
		if _, err := s.ledger.GetRaffle(ctx, raffleID); err != nil {
			return nil, err
		}
	}

	outcomes := make([]DrawOutcome, 0, len(ras))
	var errs []error
	for _, ra := range ras {
		w, err := s.SelectWinner(ctx, raffleID, ra.ArtistID)
		switch {
		case err == nil:
			outcomes = append(outcomes, DrawOutcome{ArtistID: ra.ArtistID, Winner: w})
		case errors.Is(err, status.ErrNoEligibleTickets):
			outcomes = append(outcomes, DrawOutcome{ArtistID: ra.ArtistID, Skipped: "no tickets"})
		default:
			errs = append(errs, fmt.Errorf("artist %s: %w", ra.ArtistID, err))
		}
	}

	return outcomes, errors.Join(errs...)
}

func (s *DrawService) ListDraws(ctx context.Context, raffleID string) ([]models.DrawRecord, error) {
	if _, err := s.ledger.GetRaffle(ctx, raffleID); err != nil {
		return nil, err
	}
	return s.ledger.ListDraws(ctx, raffleID)
}

func (s *DrawService) notify(ctx context.Context, notice models.WinnerNotice) {
	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.NotifyWinner(ctx, notice); err != nil {
		s.logger.Error("winner notification failed",
			"raffle_id", notice.RaffleID,
			"artist_id", notice.ArtistID,
			"participant_id", notice.ParticipantID,
			"error", err,
		)
	}
}

// buildNotice collects display names for the notification. Missing artist
// or participant rows only leave the names blank.
func (s *DrawService) buildNotice(ctx context.Context, tx ledger.Ledger, raffle *models.Raffle, w *models.WinnerResult) *models.WinnerNotice {
	notice := &models.WinnerNotice{
		RaffleID:      raffle.ID,
		RaffleName:    raffle.Name,
		ArtistID:      w.ArtistID,
		TicketID:      w.TicketID,
		TicketNumber:  w.TicketNumber,
		ParticipantID: w.ParticipantID,
		SelectedAt:    w.SelectedAt.String(),
	}

	if artist, err := tx.GetArtist(ctx, w.ArtistID); err == nil {
		notice.ArtistName = artist.Name
	} else {
		s.logger.Debug("artist lookup for notice failed", "artist_id", w.ArtistID, "error", err)
	}

	if p, err := tx.GetParticipant(ctx, w.ParticipantID); err == nil {
		notice.Participant = p.Name
		notice.Email = p.Email
		notice.ChatID = p.TelegramChatID
	} else {
		s.logger.Debug("participant lookup for notice failed", "participant_id", w.ParticipantID, "error", err)
	}

	return notice
}

func existingWinner(ctx context.Context, tx ledger.Ledger, ra *models.RaffleArtist) (*models.WinnerResult, error) {
	t, err := tx.GetTicket(ctx, ra.WinnerTicketID)
	if err != nil {
		return nil, fmt.Errorf("load recorded winner: %w", err)
	}
	return &models.WinnerResult{
		RaffleID:        ra.RaffleID,
		ArtistID:        ra.ArtistID,
		TicketID:        t.ID,
		TicketNumber:    t.TicketNumber,
		ParticipantID:   t.ParticipantID,
		SelectedAt:      ra.WinnerSelectedAt,
		AlreadySelected: true,
	}, nil
}

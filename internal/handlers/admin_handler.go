package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/services"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/pocketbase/pocketbase/core"
)

type Drawer interface {
	SelectWinner(ctx context.Context, raffleID, artistID string) (*models.WinnerResult, error)
	DrawAll(ctx context.Context, raffleID string) ([]services.DrawOutcome, error)
	ListDraws(ctx context.Context, raffleID string) ([]models.DrawRecord, error)
}

// PoolReader is the read side of the ledger used to inspect an artist pool.
type PoolReader interface {
	GetRaffleArtist(ctx context.Context, raffleID, artistID string) (*models.RaffleArtist, error)
	ListTicketsForArtist(ctx context.Context, raffleID, artistID string) ([]models.Ticket, error)
}

type AdminHandler struct {
	drawer Drawer
	pools  PoolReader
	logger *slog.Logger
}

func NewAdminHandler(drawer Drawer, pools PoolReader, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		drawer: drawer,
		pools:  pools,
		logger: logger,
	}
}

// DrawWinner - Select (or return the already selected) winner for an artist
func (h *AdminHandler) DrawWinner(e *core.RequestEvent) error {
	raffleID := e.Request.PathValue("raffleId")
	artistID := e.Request.PathValue("artistId")

	result, err := h.drawer.SelectWinner(e.Request.Context(), raffleID, artistID)
	if err != nil {
		return handleError(err)
	}

	code := http.StatusCreated
	if result.AlreadySelected {
		code = http.StatusOK
	}
	return e.JSON(code, result)
}

// DrawAll - Draw every artist of a raffle; per artist failures are reported
// alongside the successful outcomes.
func (h *AdminHandler) DrawAll(e *core.RequestEvent) error {
	raffleID := e.Request.PathValue("raffleId")

	outcomes, err := h.drawer.DrawAll(e.Request.Context(), raffleID)
	if err != nil && outcomes == nil {
		return handleError(err)
	}

	resp := map[string]any{
		"raffle_id": raffleID,
		"outcomes":  outcomes,
	}
	if err != nil {
		h.logger.Warn("draw-all finished with errors", "raffle_id", raffleID, "error", err)
		resp["errors"] = err.Error()
	}
	return e.JSON(http.StatusOK, resp)
}

// ListDraws - Draw audit trail for a raffle
func (h *AdminHandler) ListDraws(e *core.RequestEvent) error {
	raffleID := e.Request.PathValue("raffleId")

	draws, err := h.drawer.ListDraws(e.Request.Context(), raffleID)
	if err != nil {
		return handleError(err)
	}
	if draws == nil {
		draws = []models.DrawRecord{}
	}
	return e.JSON(http.StatusOK, map[string]any{
		"raffle_id": raffleID,
		"draws":     draws,
	})
}

// GetArtistTickets - The eligible pool for one artist, in ticket number order
func (h *AdminHandler) GetArtistTickets(e *core.RequestEvent) error {
	ctx := e.Request.Context()
	raffleID := e.Request.PathValue("raffleId")
	artistID := e.Request.PathValue("artistId")

	ra, err := h.pools.GetRaffleArtist(ctx, raffleID, artistID)
	if err != nil {
		return handleError(err)
	}
	tickets, err := h.pools.ListTicketsForArtist(ctx, raffleID, artistID)
	if err != nil {
		return handleError(err)
	}
	if tickets == nil {
		tickets = []models.Ticket{}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"raffle_id":        raffleID,
		"artist_id":        artistID,
		"winner_ticket_id": ra.WinnerTicketID,
		"total":            len(tickets),
		"tickets":          tickets,
	})
}

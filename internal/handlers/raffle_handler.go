package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type Allocator interface {
	Allocate(ctx context.Context, participantID, raffleID string, requests map[string]int) (*models.Allocation, error)
}

type StatsReader interface {
	ComputeStats(ctx context.Context, raffleID string) (*models.Stats, error)
	ComputeParticipantStats(ctx context.Context, participantID, raffleID string) (*models.ParticipantStats, error)
}

type RaffleHandler struct {
	allocator Allocator
	stats     StatsReader
	logger    *slog.Logger
}

func NewRaffleHandler(allocator Allocator, stats StatsReader, logger *slog.Logger) *RaffleHandler {
	return &RaffleHandler{
		allocator: allocator,
		stats:     stats,
		logger:    logger,
	}
}

type allocateRequest struct {
	Requests map[string]int `json:"requests"`
}

// GetStats - Raffle wide ticket counts and confirmed winners
func (h *RaffleHandler) GetStats(e *core.RequestEvent) error {
	raffleID := e.Request.PathValue("raffleId")

	stats, err := h.stats.ComputeStats(e.Request.Context(), raffleID)
	if err != nil && !(errors.Is(err, status.ErrStatsInconsistent) && stats != nil) {
		return handleError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"stats":             stats,
		"confirmed_winners": stats.ConfirmedWinners(),
		"consistent":        err == nil,
	})
}

// GetMyTickets - The caller's tickets in a raffle, split by artist
func (h *RaffleHandler) GetMyTickets(e *core.RequestEvent) error {
	participantID := authID(e)
	if err := requireAuth(participantID); err != nil {
		return err
	}

	stats, err := h.stats.ComputeParticipantStats(e.Request.Context(), participantID, e.Request.PathValue("raffleId"))
	if err != nil {
		return handleError(err)
	}
	return e.JSON(http.StatusOK, stats)
}

// Allocate - Assign the caller's unassigned tickets to artists
func (h *RaffleHandler) Allocate(e *core.RequestEvent) error {
	participantID := authID(e)
	if err := requireAuth(participantID); err != nil {
		return err
	}

	var req allocateRequest
	if err := e.BindBody(&req); err != nil {
		h.logger.Debug("invalid allocation body", "participant_id", participantID, "error", err)
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Requests == nil {
		req.Requests = map[string]int{}
	}

	raffleID := e.Request.PathValue("raffleId")
	alloc, err := h.allocator.Allocate(e.Request.Context(), participantID, raffleID, req.Requests)
	if err != nil {
		return handleError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"allocation": alloc,
		"allocated":  alloc.Count(),
	})
}

func authID(e *core.RequestEvent) string {
	if e.Auth == nil {
		return ""
	}
	return e.Auth.Id
}

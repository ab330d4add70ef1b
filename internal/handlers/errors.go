package handlers

import (
	"errors"
	"net/http"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/status"

	"github.com/pocketbase/pocketbase/apis"
)

// handleError maps ledger and service errors onto API errors. Anything it
// does not recognise is reported as a 500 without leaking the cause.
func handleError(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, status.ErrRaffleNotFound),
		errors.Is(err, status.ErrParticipantNotFound),
		errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError(err.Error(), nil)

	case errors.Is(err, status.ErrInvalidQuantity),
		errors.Is(err, status.ErrUnknownArtist):
		return apis.NewBadRequestError(err.Error(), nil)

	case errors.Is(err, status.ErrRaffleClosed),
		errors.Is(err, status.ErrRaffleNotOpen),
		errors.Is(err, status.ErrInsufficientUnassignedTickets),
		errors.Is(err, status.ErrConcurrentAllocationConflict),
		errors.Is(err, status.ErrAlreadyAssigned),
		errors.Is(err, status.ErrWinnerAlreadySelected),
		errors.Is(err, status.ErrNoEligibleTickets),
		errors.Is(err, status.ErrTicketLimitReached):
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)

	case errors.Is(err, status.ErrRateLimited):
		return apis.NewApiError(http.StatusTooManyRequests, err.Error(), nil)

	default:
		return apis.NewInternalServerError("Something went wrong while processing your request.", nil)
	}
}

func requireAuth(id string) error {
	if id == "" {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}
	return nil
}

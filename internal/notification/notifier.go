// Package notification fans a committed winner draw out to the realtime
// dashboard, the winner's chat and the mail outbox.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/buidl-renaissance/art-night-detroit-sub000/models"
	"github.com/buidl-renaissance/art-night-detroit-sub000/monitoring"
	"github.com/buidl-renaissance/art-night-detroit-sub000/utils"
)

type Notifier interface {
	NotifyWinner(ctx context.Context, notice models.WinnerNotice) error
}

type sink struct {
	name     string
	notifier Notifier
	breaker  *utils.CircuitBreaker
}

// Multi delivers to every registered sink, each behind its own circuit
// breaker so one dead sink does not slow the others down.
type Multi struct {
	sinks    []sink
	settings utils.BreakerSettings
	logger   *slog.Logger
}

func NewMulti(settings utils.BreakerSettings, logger *slog.Logger) *Multi {
	return &Multi{settings: settings, logger: logger}
}

// Add registers a sink. A nil notifier is skipped.
func (m *Multi) Add(name string, n Notifier) *Multi {
	if n == nil {
		return m
	}
	m.sinks = append(m.sinks, sink{
		name:     name,
		notifier: n,
		breaker:  utils.NewCircuitBreaker("notify-"+name, m.settings),
	})
	return m
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) NotifyWinner(ctx context.Context, notice models.WinnerNotice) error {
	var errs []error
	for _, s := range m.sinks {
		_, err := s.breaker.Execute(ctx, func() (any, error) {
			return nil, s.notifier.NotifyWinner(ctx, notice)
		})
		monitoring.TrackNotification(s.name, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		m.logger.Debug("winner notice delivered",
			"sink", s.name,
			"raffle_id", notice.RaffleID,
			"artist_id", notice.ArtistID,
		)
	}
	return errors.Join(errs...)
}

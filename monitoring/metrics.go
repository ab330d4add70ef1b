package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	raffleTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "raffle_tickets_total",
			Help: "Current ticket count per raffle and allocation state",
		},
		[]string{"raffle_id", "state"},
	)

	allocationOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_allocation_operations_total",
			Help: "Total allocation requests by result",
		},
		[]string{"raffle_id", "result"},
	)

	ticketsAllocated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_tickets_allocated_total",
			Help: "Total tickets moved onto artists",
		},
		[]string{"raffle_id"},
	)

	drawOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_draw_operations_total",
			Help: "Total winner draws by result",
		},
		[]string{"raffle_id", "result"},
	)

	drawPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "raffle_draw_pool_size",
			Help:    "Number of tickets in the pool at draw time",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raffle_notifications_total",
			Help: "Winner notifications by sink and result",
		},
		[]string{"sink", "result"},
	)
)

// TrackAllocation counts one allocation request and, on success, the
// tickets it moved.
func TrackAllocation(raffleID, result string, tickets int) {
	allocationOperations.WithLabelValues(raffleID, result).Inc()
	if tickets > 0 {
		ticketsAllocated.WithLabelValues(raffleID).Add(float64(tickets))
	}
}

func TrackDraw(raffleID, result string) {
	drawOperations.WithLabelValues(raffleID, result).Inc()
}

func ObservePoolSize(n int) {
	drawPoolSize.Observe(float64(n))
}

func TrackNotification(sink string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	notificationsSent.WithLabelValues(sink, result).Inc()
}

// Monitor periodically refreshes the per-raffle ticket gauges from the
// ledger.
type Monitor struct {
	ledger   ledger.Ledger
	interval time.Duration
	logger   *slog.Logger
}

func NewMonitor(l ledger.Ledger, interval time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{ledger: l, interval: interval, logger: logger}
}

// Run collects until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Collect(ctx)
		}
	}
}

// Collect refreshes the gauges for every active or ended raffle once.
func (m *Monitor) Collect(ctx context.Context) {
	raffles, err := m.ledger.ListRafflesByStatus(ctx, models.RaffleActive, models.RaffleEnded)
	if err != nil {
		m.logger.Warn("metrics: list raffles failed", "error", err)
		return
	}

	for _, r := range raffles {
		counts, err := m.ledger.CountTickets(ctx, r.ID)
		if err != nil {
			m.logger.Warn("metrics: count tickets failed", "raffle_id", r.ID, "error", err)
			continue
		}
		raffleTickets.WithLabelValues(r.ID, "total").Set(float64(counts.Total))
		raffleTickets.WithLabelValues(r.ID, "assigned").Set(float64(counts.Assigned))
		raffleTickets.WithLabelValues(r.ID, "unassigned").Set(float64(counts.Unassigned))
	}
}

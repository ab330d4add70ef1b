package services

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/ledger"
	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockLedger runs WithinTx callbacks against itself, so expectations cover
// both transactional and plain calls.
type mockLedger struct {
	mock.Mock
}

var _ ledger.Ledger = (*mockLedger)(nil)

func (m *mockLedger) WithinTx(ctx context.Context, fn func(tx ledger.Ledger) error) error {
	return fn(m)
}

func (m *mockLedger) GetRaffle(ctx context.Context, raffleID string) (*models.Raffle, error) {
	args := m.Called(ctx, raffleID)
	if r := args.Get(0); r != nil {
		return r.(*models.Raffle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListRafflesByStatus(ctx context.Context, statuses ...models.RaffleStatus) ([]models.Raffle, error) {
	args := m.Called(ctx, statuses)
	if r := args.Get(0); r != nil {
		return r.([]models.Raffle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetArtist(ctx context.Context, artistID string) (*models.Artist, error) {
	args := m.Called(ctx, artistID)
	if r := args.Get(0); r != nil {
		return r.(*models.Artist), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	args := m.Called(ctx, participantID)
	if r := args.Get(0); r != nil {
		return r.(*models.Participant), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetRaffleArtist(ctx context.Context, raffleID, artistID string) (*models.RaffleArtist, error) {
	args := m.Called(ctx, raffleID, artistID)
	if r := args.Get(0); r != nil {
		return r.(*models.RaffleArtist), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListRaffleArtists(ctx context.Context, raffleID string) ([]models.RaffleArtist, error) {
	args := m.Called(ctx, raffleID)
	if r := args.Get(0); r != nil {
		return r.([]models.RaffleArtist), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if r := args.Get(0); r != nil {
		return r.(*models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListTicketsForParticipant(ctx context.Context, participantID, raffleID string) ([]models.Ticket, error) {
	args := m.Called(ctx, participantID, raffleID)
	if r := args.Get(0); r != nil {
		return r.([]models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) ListTicketsForArtist(ctx context.Context, raffleID, artistID string) ([]models.Ticket, error) {
	args := m.Called(ctx, raffleID, artistID)
	if r := args.Get(0); r != nil {
		return r.([]models.Ticket), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) SetTicketArtist(ctx context.Context, ticketID, artistID string) error {
	return m.Called(ctx, ticketID, artistID).Error(0)
}

func (m *mockLedger) CountTickets(ctx context.Context, raffleID string) (ledger.TicketCounts, error) {
	args := m.Called(ctx, raffleID)
	return args.Get(0).(ledger.TicketCounts), args.Error(1)
}

func (m *mockLedger) CountByArtist(ctx context.Context, raffleID string) (map[string]int, error) {
	args := m.Called(ctx, raffleID)
	if r := args.Get(0); r != nil {
		return r.(map[string]int), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockLedger) SetWinner(ctx context.Context, raffleArtistID, ticketID string, at types.DateTime) error {
	return m.Called(ctx, raffleArtistID, ticketID, at).Error(0)
}

func (m *mockLedger) RecordDraw(ctx context.Context, record *models.DrawRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockLedger) ListDraws(ctx context.Context, raffleID string) ([]models.DrawRecord, error) {
	args := m.Called(ctx, raffleID)
	if r := args.Get(0); r != nil {
		return r.([]models.DrawRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingNotifier captures notices and signals each one on sent.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []models.WinnerNotice
	err     error
	sent    chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan struct{}, 64)}
}

func (n *recordingNotifier) NotifyWinner(ctx context.Context, notice models.WinnerNotice) error {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
	n.sent <- struct{}{}
	return n.err
}

func (n *recordingNotifier) all() []models.WinnerNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.WinnerNotice(nil), n.notices...)
}

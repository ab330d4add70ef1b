package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	pubnub "github.com/pubnub/go"
)

type publisher interface {
	publish(channel string, message any) error
}

type pubnubPublisher struct {
	pn *pubnub.PubNub
}

func (p pubnubPublisher) publish(channel string, message any) error {
	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}

// PubNubNotifier announces winners on the raffle's dashboard channel and on
// the winner's personal channel.
type PubNubNotifier struct {
	pub    publisher
	logger *slog.Logger
}

func NewPubNubNotifier(pn *pubnub.PubNub, logger *slog.Logger) *PubNubNotifier {
	return &PubNubNotifier{pub: pubnubPublisher{pn: pn}, logger: logger}
}

func RaffleChannel(raffleID string) string {
	return fmt.Sprintf("raffle-%s", raffleID)
}

func UserChannel(participantID string) string {
	return fmt.Sprintf("user-%s", participantID)
}

func (n *PubNubNotifier) NotifyWinner(ctx context.Context, notice models.WinnerNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := n.pub.publish(RaffleChannel(notice.RaffleID), map[string]any{
		"type":          "winner_selected",
		"raffle_id":     notice.RaffleID,
		"artist_id":     notice.ArtistID,
		"artist_name":   notice.ArtistName,
		"ticket_number": notice.TicketNumber,
		"selected_at":   notice.SelectedAt,
	})
	if err != nil {
		return fmt.Errorf("publish raffle channel: %w", err)
	}

	err = n.pub.publish(UserChannel(notice.ParticipantID), map[string]any{
		"type":          "raffle_win",
		"raffle_id":     notice.RaffleID,
		"raffle_name":   notice.RaffleName,
		"artist_id":     notice.ArtistID,
		"artist_name":   notice.ArtistName,
		"ticket_id":     notice.TicketID,
		"ticket_number": notice.TicketNumber,
	})
	if err != nil {
		return fmt.Errorf("publish user channel: %w", err)
	}

	n.logger.Debug("winner published", "raffle_id", notice.RaffleID, "artist_id", notice.ArtistID)
	return nil
}

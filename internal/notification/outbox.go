package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/buidl-renaissance/art-night-detroit-sub000/models"

	"github.com/redis/go-redis/v9"
)

const WinnerOutboxKey = "raffle:notifications:winners"

// RedisOutbox queues winner notices for the external mailer, which pops
// them from the other end of the list.
type RedisOutbox struct {
	redis redis.Cmdable
	key   string
}

func NewRedisOutbox(client redis.Cmdable, key string) *RedisOutbox {
	if key == "" {
		key = WinnerOutboxKey
	}
	return &RedisOutbox{redis: client, key: key}
}

func (o *RedisOutbox) NotifyWinner(ctx context.Context, notice models.WinnerNotice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode winner notice: %w", err)
	}

	if err := o.redis.LPush(ctx, o.key, string(payload)).Err(); err != nil {
		return fmt.Errorf("push winner notice: %w", err)
	}
	return nil
}

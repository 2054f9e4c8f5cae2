package messaging

import (
	"context"
	"encoding/json"

	"homesocial-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Hub fans new messages out to every open thread stream over Redis pub/sub,
// so streams on any instance see messages sent through any other.
type Hub struct {
	Rdb *redis.Client
}

func channel(threadID uuid.UUID) string {
	return "thread:" + threadID.String()
}

// Publish announces a stored message.
func (h *Hub) Publish(ctx context.Context, m domain.Message) error {
	if h == nil || h.Rdb == nil {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return h.Rdb.Publish(ctx, channel(m.ThreadID), b).Err()
}

// Subscribe returns new messages for a thread until ctx is cancelled; the
// channel is closed afterwards. It returns once the subscription is active.
func (h *Hub) Subscribe(ctx context.Context, threadID uuid.UUID) (<-chan domain.Message, error) {
	if h == nil || h.Rdb == nil {
		return nil, ErrRealtimeUnavailable
	}
	ps := h.Rdb.Subscribe(ctx, channel(threadID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan domain.Message, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var m domain.Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					log.Warn().Err(err).Str("channel", msg.Channel).Msg("messaging: bad payload")
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

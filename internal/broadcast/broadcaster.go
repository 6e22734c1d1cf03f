package broadcast

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"student-inout-api/internal/metrics"
)

const publishTimeout = 2 * time.Second

// Broadcaster delivers events to every display connected to any instance.
// With redis, events go through a pub/sub channel that each instance relays
// to its local hub. Without redis, or when a publish fails, the event is
// delivered to the local hub only.
type Broadcaster struct {
	hub     *Hub
	redis   *redis.Client
	channel string
	seq     atomic.Uint64
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewBroadcaster creates a broadcaster. client may be nil.
func NewBroadcaster(hub *Hub, client *redis.Client, channel string, logger *zap.Logger, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		hub:     hub,
		redis:   client,
		channel: channel,
		logger:  logger,
		metrics: m,
	}
}

// Notify stamps ev with the next sequence number and delivers it. It is
// best-effort and never returns an error to the caller.
func (b *Broadcaster) Notify(ctx context.Context, ev Event) {
	ev.Seq = b.seq.Add(1)
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("Failed to encode sync event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	b.metrics.RecordSyncEvent(string(ev.Type))

	if b.redis != nil {
		// the caller's request may already be finishing
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		start := time.Now()
		err := b.redis.Publish(pubCtx, b.channel, payload).Err()
		b.metrics.RecordExternalCall("redis", "publish", time.Since(start), err)
		if err == nil {
			return
		}
		b.logger.Warn("Sync publish failed, delivering locally",
			zap.String("channel", b.channel),
			zap.Uint64("seq", ev.Seq),
			zap.Error(err),
		)
	}

	b.hub.Broadcast(payload)
}

// Run relays events from the redis channel to the local hub until ctx is
// done. Without redis it returns immediately.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	b.logger.Info("Sync relay subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.hub.Broadcast([]byte(msg.Payload))
		}
	}
}

// Hello builds the first message sent to a new display
func Hello(pollInterval time.Duration) []byte {
	payload, _ := json.Marshal(Event{
		Type:                EventHello,
		Timestamp:           time.Now().UTC(),
		PollIntervalSeconds: int(pollInterval / time.Second),
	})
	return payload
}

package redis

import (
	"context"
	"sync"

	"github.com/angelmondragon/cartflow/pkg/bus"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

// Bus carries bus channels over Redis PUBLISH/SUBSCRIBE. Every subscription
// gets its own PubSub connection, closed on Unsubscribe.
type Bus struct {
	client *Client
	logg   *logger.Logger
}

// NewBus builds a redis-backed bus.
func NewBus(client *Client, logg *logger.Logger) *Bus {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Bus{client: client, logg: logg}
}

// Publish implements bus.Bus.
func (b *Bus) Publish(ctx context.Context, channel string, data []byte) error {
	if channel == "" {
		return bus.ErrChannelMissing
	}
	return b.client.Publish(ctx, channel, data)
}

// Subscribe implements bus.Bus.
func (b *Bus) Subscribe(ctx context.Context, channel string, handler bus.Handler) (bus.Subscription, error) {
	if channel == "" {
		return nil, bus.ErrChannelMissing
	}
	if handler == nil {
		return nil, bus.ErrHandlerMissing
	}
	if b.client == nil || b.client.subscribe == nil {
		return nil, errNotInitialized
	}

	ps, err := b.client.subscribe(ctx, b.client.ChannelKey(channel))
	if err != nil {
		return nil, err
	}

	sub := &redisSub{channel: channel, ps: ps, done: make(chan struct{})}
	go sub.run(handler)

	b.logg.Debug(b.logg.WithField(ctx, "channel", channel), "redis.bus.subscribed")
	return sub, nil
}

type redisSub struct {
	channel string
	ps      stream
	once    sync.Once
	done    chan struct{}
	err     error
}

func (s *redisSub) Channel() string { return s.channel }

func (s *redisSub) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		<-s.done
	})
	return s.err
}

func (s *redisSub) run(handler bus.Handler) {
	defer close(s.done)
	for msg := range s.ps.Channel() {
		handler(context.Background(), bus.Message{Channel: s.channel, Data: []byte(msg.Payload)})
	}
}

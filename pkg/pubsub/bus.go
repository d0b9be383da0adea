package pubsub

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/cartflow/pkg/bus"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

// channelAttribute carries the bus channel on every Pub/Sub message.
const channelAttribute = "channel"

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

// Bus multiplexes every bus channel over one topic. Each instance has its own
// subscription; Run receives from it and fans deliveries out to local
// subscribers by the channel attribute.
type Bus struct {
	publisher publisher
	receiver  receiver
	local     *bus.Memory
	logg      *logger.Logger
}

// NewBus wires a bus over the client's cart events topic and subscription.
func NewBus(client *Client, logg *logger.Logger) (*Bus, error) {
	pub := client.CartEventsPublisher()
	if pub == nil {
		return nil, errors.New("cart events topic not configured")
	}
	sub := client.CartEventsSubscriber()
	if sub == nil {
		return nil, errors.New("cart events subscription not configured")
	}
	return newBus(&gcpPublisher{Publisher: pub}, sub, logg), nil
}

func newBus(pub publisher, recv receiver, logg *logger.Logger) *Bus {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Bus{
		publisher: pub,
		receiver:  recv,
		local:     bus.NewMemory(0, logg),
		logg:      logg,
	}
}

// Publish implements bus.Bus and waits for the server ack.
func (b *Bus) Publish(ctx context.Context, channel string, data []byte) error {
	if channel == "" {
		return bus.ErrChannelMissing
	}
	res := b.publisher.Publish(ctx, &gcppubsub.Message{
		Data:       data,
		Attributes: map[string]string{channelAttribute: channel},
	})
	if res == nil {
		return errors.New("publish result is nil")
	}
	_, err := res.Get(ctx)
	return err
}

// Subscribe implements bus.Bus; deliveries arrive once Run is receiving.
func (b *Bus) Subscribe(ctx context.Context, channel string, handler bus.Handler) (bus.Subscription, error) {
	return b.local.Subscribe(ctx, channel, handler)
}

// Run receives until ctx is canceled.
func (b *Bus) Run(ctx context.Context) error {
	return b.receiver.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		b.dispatch(ctx, msg)
		msg.Ack()
	})
}

// Close drops the local subscribers.
func (b *Bus) Close() error {
	return b.local.Close()
}

// dispatch reports whether the message reached the local fan-out.
func (b *Bus) dispatch(ctx context.Context, msg *gcppubsub.Message) bool {
	channel := msg.Attributes[channelAttribute]
	if channel == "" {
		b.logg.Warn(b.logg.WithField(ctx, "message_id", msg.ID), "pubsub.bus.missing_channel")
		return false
	}
	if err := b.local.Publish(ctx, channel, msg.Data); err != nil {
		b.logg.Error(b.logg.WithField(ctx, "channel", channel), "pubsub.bus.dispatch_failed", err)
		return false
	}
	return true
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}

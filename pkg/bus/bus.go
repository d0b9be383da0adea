// Package bus carries cross-component notifications between cart sessions and
// the outside world. Delivery is at-most-once and fire-and-forget on every
// transport.
package bus

import (
	"context"
	"errors"
	"strings"
)

// CartUpdatedChannel is the global "cart changed" signal.
const CartUpdatedChannel = "shopping-cart-update"

const checkoutChannelPrefix = "checkout:"

var (
	ErrClosed         = errors.New("bus closed")
	ErrChannelMissing = errors.New("channel is required")
	ErrHandlerMissing = errors.New("handler is required")
)

// CheckoutChannel returns the checkout hand-off channel scoped to one session.
func CheckoutChannel(sessionID string) string {
	return checkoutChannelPrefix + strings.TrimSpace(sessionID)
}

// Message is one delivery on a channel.
type Message struct {
	Channel string
	Data    []byte
}

// Handler consumes deliveries. Handlers must not block for long; the
// transports deliver to each subscription in order from a single goroutine.
type Handler func(ctx context.Context, msg Message)

// Subscription is a live registration of a handler on a channel.
type Subscription interface {
	Channel() string
	Unsubscribe() error
}

// Bus is the publish/subscribe surface cart components depend on.
type Bus interface {
	Publish(ctx context.Context, channel string, data []byte) error
	Subscribe(ctx context.Context, channel string, handler Handler) (Subscription, error)
}

func validate(channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return ErrChannelMissing
	}
	if handler == nil {
		return ErrHandlerMissing
	}
	return nil
}

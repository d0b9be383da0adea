package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/cartflow/pkg/bus"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
)

func (c *Component) checkoutChannel() string {
	return bus.CheckoutChannel(c.sessionID)
}

func (c *Component) subscribeChannels(ctx context.Context) error {
	if err := c.subscribe(ctx, bus.CartUpdatedChannel, c.handleCartUpdated); err != nil {
		return err
	}
	return c.subscribe(ctx, c.checkoutChannel(), c.handleCheckout)
}

// subscribe keeps at most one live subscription per channel.
func (c *Component) subscribe(ctx context.Context, channel string, handler bus.Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return errClosed()
	}
	if _, ok := c.subs[channel]; ok {
		return nil
	}
	sub, err := c.bus.Subscribe(ctx, channel, handler)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	c.subs[channel] = sub
	return nil
}

// handleCartUpdated refetches the cart. The payload is ignored.
func (c *Component) handleCartUpdated(_ context.Context, _ bus.Message) {
	c.track(func() {
		c.logg.Debug(c.baseCtx, "cart.updated.received")
		_, _ = c.Load(c.baseCtx)
	})
}

// handleCheckout replaces the confirmation mirror with whatever arrives on
// the checkout channel, including this session's own publish.
func (c *Component) handleCheckout(_ context.Context, msg bus.Message) {
	c.track(func() {
		var payload CheckoutPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.logg.Warn(c.logg.WithField(c.baseCtx, "channel", msg.Channel), "cart.checkout.decode_failed")
			return
		}
		items := copyItems(payload.SelectedProducts)
		_ = c.call(c.baseCtx, func() {
			c.confirmation = items
		})
	})
}

// RequestCheckout publishes a snapshot of the selected items on the session's
// checkout channel and returns the published payload.
func (c *Component) RequestCheckout(ctx context.Context) (CheckoutPayload, error) {
	var payload CheckoutPayload
	if err := c.call(ctx, func() {
		payload = newCheckoutPayload(c.selectedItems())
	}); err != nil {
		return CheckoutPayload{}, err
	}
	if err := c.publishCheckout(ctx, payload); err != nil {
		return CheckoutPayload{}, err
	}
	return payload, nil
}

// PublishFinalized republishes a finalized list on the session's checkout
// channel, as the order-details step does.
func (c *Component) PublishFinalized(ctx context.Context, items []LineItem) (CheckoutPayload, error) {
	if c.isClosing() {
		return CheckoutPayload{}, errClosed()
	}
	payload := newCheckoutPayload(items)
	if err := c.publishCheckout(ctx, payload); err != nil {
		return CheckoutPayload{}, err
	}
	return payload, nil
}

func (c *Component) publishCheckout(ctx context.Context, payload CheckoutPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout payload")
	}
	if err := c.bus.Publish(ctx, c.checkoutChannel(), data); err != nil {
		c.logg.Error(c.logCtx(ctx), "cart.checkout.publish_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish checkout")
	}
	c.logg.Info(c.logg.WithField(c.logCtx(ctx), "items", len(payload.SelectedProducts)), "cart.checkout.published")
	return nil
}

// Confirmation returns a copy of the confirmation-stage items.
func (c *Component) Confirmation(ctx context.Context) ([]LineItem, error) {
	var items []LineItem
	err := c.call(ctx, func() {
		items = copyItems(c.confirmation)
	})
	return items, err
}

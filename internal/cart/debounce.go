package cart

import (
	"github.com/angelmondragon/cartflow/pkg/notify"
)

// debounceState holds the single pending quantity persistence.
type debounceState struct {
	timer      Timer
	generation uint64
	pending    LineItem
}

// scheduleQuantity re-arms the timer for item; a pending edit is dropped.
func (c *Component) scheduleQuantity(item LineItem) {
	if c.quantity.timer != nil {
		c.quantity.timer.Stop()
		c.metrics.IncCoalesced()
	}
	c.quantity.generation++
	generation := c.quantity.generation
	c.quantity.pending = item
	c.quantity.timer = c.clock.AfterFunc(c.debounce, func() {
		_ = c.call(c.baseCtx, func() {
			c.fireQuantity(generation)
		})
	})
}

func (c *Component) cancelQuantity() {
	if c.quantity.timer == nil {
		return
	}
	c.quantity.timer.Stop()
	c.quantity.timer = nil
	c.quantity.generation++
}

// fireQuantity consumes the timer and persists the pending edit. Callbacks
// from a cancelled or re-armed timer are discarded.
func (c *Component) fireQuantity(generation uint64) {
	if c.quantity.timer == nil || generation != c.quantity.generation {
		return
	}
	c.quantity.timer = nil
	product := c.quantity.pending.product()
	c.goTrack(func() {
		c.persistQuantity(product)
	})
}

func (c *Component) persistQuantity(product Product) {
	ctx := c.logg.WithField(c.baseCtx, "product_id", product.ID)
	err := c.observe(opUpdateQuantity, func() error {
		return c.products.UpdateProductQuantity(ctx, product)
	})
	if err != nil {
		failure := newFailure(QuantityUpdateError, err)
		c.logFailure(ctx, "cart.quantity.update_failed", err)
		c.notifier.Notify(ctx, notify.Error(titleQuantityError, failure.Message))
		return
	}
	c.logg.Info(ctx, "cart.quantity.updated")
	c.notifier.Notify(ctx, notify.Success(titleSuccess, messageQuantityUpdated))
}

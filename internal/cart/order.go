package cart

import (
	"context"

	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/notify"
)

const messageNothingToOrder = "No products to order."

// ConfirmOrder submits the confirmation-stage items as one order and returns
// the order id. Lines with a zero quantity are left out. Nothing is recorded
// locally.
func (c *Component) ConfirmOrder(ctx context.Context) (string, error) {
	if c.isClosing() {
		return "", errClosed()
	}

	var lines []OrderLine
	if err := c.call(ctx, func() {
		lines = make([]OrderLine, 0, len(c.confirmation))
		for _, item := range c.confirmation {
			if item.Quantity <= 0 {
				continue
			}
			lines = append(lines, item.orderLine())
		}
	}); err != nil {
		return "", err
	}
	if len(lines) == 0 {
		c.notifier.Notify(ctx, notify.Error(titleOrderError, messageNothingToOrder))
		return "", pkgerrors.New(pkgerrors.CodeValidation, messageNothingToOrder)
	}

	var orderID string
	err := c.observe(opCreateOrder, func() error {
		var createErr error
		orderID, createErr = c.orders.CreateOrder(ctx, lines)
		return createErr
	})
	if err != nil {
		failure := newFailure(OrderCreationError, err)
		c.logFailure(ctx, "cart.order.create_failed", err)
		c.notifier.Notify(ctx, notify.Error(titleOrderError, failure.Message))
		return "", failure.asDependency()
	}

	c.logg.Info(c.logg.WithField(c.logCtx(ctx), "order_id", orderID), "cart.order.created")
	c.notifier.Notify(ctx, notify.Success(titleSuccess, messageOrderCreated))
	return orderID, nil
}

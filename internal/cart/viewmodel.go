package cart

import (
	"context"

	"github.com/angelmondragon/cartflow/internal/pricing"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/notify"
)

const (
	opFetchProducts  = "fetch_products"
	opDeleteProducts = "delete_products"
	opUpdateQuantity = "update_quantity"
	opCreateOrder    = "create_order"
)

// Load fetches the products and replaces the cart. On failure the cart is
// left untouched and a FetchError is reported. A fetch that started before
// the last applied load or delete is discarded and returns the current view.
func (c *Component) Load(ctx context.Context) (CartView, error) {
	if c.isClosing() {
		return CartView{}, errClosed()
	}

	var seq uint64
	if err := c.call(ctx, func() {
		seq = c.loads.begin()
	}); err != nil {
		return CartView{}, err
	}

	var products []Product
	err := c.observe(opFetchProducts, func() error {
		var fetchErr error
		products, fetchErr = c.products.FetchProducts(ctx)
		return fetchErr
	})
	if err != nil {
		failure := newFailure(FetchError, err)
		c.logFailure(ctx, "cart.load.failed", err)
		c.notifier.Notify(ctx, notify.Error(titleFetchError, failure.Message))
		return CartView{}, failure.asDependency()
	}

	var (
		view  CartView
		stale bool
	)
	err = c.call(ctx, func() {
		if stale = !c.loads.accept(seq); !stale {
			c.replaceItems(products)
		}
		view = c.view()
	})
	if stale {
		c.logg.Debug(c.logg.WithField(c.logCtx(ctx), "load_seq", seq), "cart.load.stale")
	}
	return view, err
}

// View returns the current cart snapshot.
func (c *Component) View(ctx context.Context) (CartView, error) {
	var view CartView
	err := c.call(ctx, func() {
		view = c.view()
	})
	return view, err
}

// ToggleSelect flips the selection of id. An unknown id is a no-op.
func (c *Component) ToggleSelect(ctx context.Context, id string) (CartView, error) {
	var view CartView
	err := c.call(ctx, func() {
		if i := c.indexOf(id); i >= 0 {
			c.items[i].Selected = !c.items[i].Selected
			c.recompute()
		}
		view = c.view()
	})
	return view, err
}

// SetSelectAll sets every row to selected.
func (c *Component) SetSelectAll(ctx context.Context, selected bool) (CartView, error) {
	var view CartView
	err := c.call(ctx, func() {
		for i := range c.items {
			c.items[i].Selected = selected
		}
		c.recompute()
		view = c.view()
	})
	return view, err
}

// SetQuantity updates the quantity of id and schedules its persistence.
// Negative quantities are rejected; an unknown id is a not-found error.
func (c *Component) SetQuantity(ctx context.Context, id string, quantity int) (CartView, error) {
	if quantity < 0 {
		return CartView{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be zero or greater")
	}

	var (
		view  CartView
		found bool
	)
	err := c.call(ctx, func() {
		i := c.indexOf(id)
		if i < 0 {
			return
		}
		found = true
		c.items[i].Quantity = quantity
		c.recompute()
		c.scheduleQuantity(c.items[i])
		view = c.view()
	})
	if err != nil {
		return CartView{}, err
	}
	if !found {
		return CartView{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return view, nil
}

// DeleteSelected deletes every selected row in one backend call. Nothing is
// removed unless the call succeeds. With nothing selected it is a no-op.
func (c *Component) DeleteSelected(ctx context.Context) (CartView, error) {
	if c.isClosing() {
		return CartView{}, errClosed()
	}

	var (
		ids  []string
		view CartView
	)
	if err := c.call(ctx, func() {
		for _, idx := range c.summary.Selected {
			ids = append(ids, c.items[idx].ID)
		}
		view = c.view()
	}); err != nil {
		return CartView{}, err
	}
	if len(ids) == 0 {
		return view, nil
	}

	err := c.observe(opDeleteProducts, func() error {
		return c.products.DeleteProducts(ctx, ids)
	})
	if err != nil {
		failure := newFailure(DeleteError, err)
		c.logFailure(ctx, "cart.delete.failed", err)
		c.notifier.Notify(ctx, notify.Error(titleDeleteError, failure.Message))
		return CartView{}, failure.asDependency()
	}

	err = c.call(ctx, func() {
		c.removeItems(ids)
		view = c.view()
	})
	if err != nil {
		return CartView{}, err
	}
	c.notifier.Notify(ctx, notify.Success(titleSuccess, messageDeleted))
	return view, nil
}

// loop-only helpers below

func (c *Component) replaceItems(products []Product) {
	previous := map[string]bool{}
	if c.preserveSelection {
		for _, item := range c.items {
			previous[item.ID] = item.Selected
		}
	}

	items := make([]LineItem, 0, len(products))
	for _, p := range products {
		item := lineItemFromProduct(p)
		item.Selected = previous[item.ID]
		items = append(items, item)
	}
	c.items = items
	c.recompute()
}

func (c *Component) removeItems(ids []string) {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := c.items[:0]
	for _, item := range c.items {
		if _, ok := drop[item.ID]; ok {
			continue
		}
		item.Selected = false
		kept = append(kept, item)
	}
	c.items = kept
	c.loads.supersede()
	c.recompute()
}

// loadOrder sequences fetches against each other and against deletes.
type loadOrder struct {
	started uint64
	applied uint64
}

func (o *loadOrder) begin() uint64 {
	o.started++
	return o.started
}

// accept reports whether a fetch stamped seq is still newer than the state.
func (o *loadOrder) accept(seq uint64) bool {
	if seq <= o.applied {
		return false
	}
	o.applied = seq
	return true
}

// supersede marks every fetch started so far as stale.
func (o *loadOrder) supersede() {
	o.applied = o.begin()
}

func (c *Component) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Component) recompute() {
	c.summary = pricing.Summarize(pricingLines(c.items))
}

func (c *Component) selectedItems() []LineItem {
	out := make([]LineItem, 0, len(c.summary.Selected))
	for _, idx := range c.summary.Selected {
		out = append(out, c.items[idx])
	}
	return out
}

func (c *Component) view() CartView {
	return CartView{
		Items:         copyItems(c.items),
		SelectedItems: c.selectedItems(),
		TotalPrice:    c.summary.Total,
		SelectAll:     c.summary.SelectAll,
		Checked:       c.summary.SelectAll.Checked(),
		Indeterminate: c.summary.SelectAll.Indeterminate(),
		Empty:         len(c.items) == 0,
	}
}

package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/cartflow/internal/pricing"
	"github.com/angelmondragon/cartflow/internal/wizard"
	"github.com/angelmondragon/cartflow/pkg/bus"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/notify"
	"github.com/shopspring/decimal"
)

func TestMountLoadsAndSubscribes(t *testing.T) {
	products := newStubProducts(product("A", "10", 2), product("B", "5", 1))
	h := mountHarness(t, products)

	view, err := h.component.View(context.Background())
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if got := ids(view.Items); len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("expected items in fetch order, got %v", got)
	}
	for _, item := range view.Items {
		if item.Selected {
			t.Fatalf("fetched rows must start unselected: %+v", item)
		}
	}
	if view.SelectAll != pricing.SelectNone || view.Empty {
		t.Fatalf("unexpected view flags: %+v", view)
	}
	if n := h.bus.Subscribers(bus.CartUpdatedChannel); n != 1 {
		t.Fatalf("expected one cart-updated subscription, got %d", n)
	}
	if n := h.bus.Subscribers(bus.CheckoutChannel("session-1")); n != 1 {
		t.Fatalf("expected one checkout subscription, got %d", n)
	}

	if err := h.component.subscribeChannels(context.Background()); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if n := h.bus.Subscribers(bus.CheckoutChannel("session-1")); n != 1 {
		t.Fatalf("duplicate subscribe must be guarded, got %d", n)
	}

	if err := h.component.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := h.bus.Subscribers(bus.CartUpdatedChannel) + h.bus.Subscribers(bus.CheckoutChannel("session-1")); n != 0 {
		t.Fatalf("expected subscriptions torn down, got %d", n)
	}
}

func TestMountRequiresCollaborators(t *testing.T) {
	if _, err := Mount(context.Background(), Options{SessionID: " "}); err == nil {
		t.Fatal("expected error for missing session id")
	}
	if _, err := Mount(context.Background(), Options{SessionID: "s", Products: newStubProducts()}); err == nil {
		t.Fatal("expected error for missing order creator")
	}
}

func TestMountFailedInitialLoadNotifies(t *testing.T) {
	products := newStubProducts()
	products.fetchErr = errors.New("backend unavailable")
	h := mountHarness(t, products)

	n, ok := h.notifier.last()
	if !ok || n.Title != "Error Fetching Products" || n.Message != "backend unavailable" || n.Severity != notify.SeverityError {
		t.Fatalf("unexpected notification %+v", n)
	}
	view, err := h.component.View(context.Background())
	if err != nil || !view.Empty {
		t.Fatalf("expected empty cart after failed mount load, got %+v (%v)", view, err)
	}
}

func TestSelectedTotalScenario(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 2), product("B", "5", 1)))

	view, err := h.component.ToggleSelect(context.Background(), "A")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !view.TotalPrice.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected total 20.00, got %s", view.TotalPrice)
	}
	if got := ids(view.SelectedItems); len(got) != 1 || got[0] != "A" {
		t.Fatalf("expected selected [A], got %v", got)
	}
	if !view.Indeterminate || view.Checked {
		t.Fatalf("expected indeterminate select-all, got %+v", view)
	}
	assertDerived(t, view)
}

func TestDerivedStateAfterEveryMutation(t *testing.T) {
	h := mountHarness(t, newStubProducts(
		product("A", "19.99", 1),
		product("B", "0.335", 3),
		product("C", "7", 0),
	))
	ctx := context.Background()

	steps := []struct {
		name string
		op   func() (CartView, error)
	}{
		{"toggle A", func() (CartView, error) { return h.component.ToggleSelect(ctx, "A") }},
		{"toggle B", func() (CartView, error) { return h.component.ToggleSelect(ctx, "B") }},
		{"quantity B", func() (CartView, error) { return h.component.SetQuantity(ctx, "B", 7) }},
		{"select all", func() (CartView, error) { return h.component.SetSelectAll(ctx, true) }},
		{"quantity C", func() (CartView, error) { return h.component.SetQuantity(ctx, "C", 4) }},
		{"toggle A off", func() (CartView, error) { return h.component.ToggleSelect(ctx, "A") }},
		{"unknown toggle", func() (CartView, error) { return h.component.ToggleSelect(ctx, "missing") }},
		{"select none", func() (CartView, error) { return h.component.SetSelectAll(ctx, false) }},
		{"reload", func() (CartView, error) { return h.component.Load(ctx) }},
	}

	for _, step := range steps {
		view, err := step.op()
		if err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		assertDerived(t, view)
	}
}

func TestToggleUnknownIsNoop(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 1)))

	before, _ := h.component.View(context.Background())
	after, err := h.component.ToggleSelect(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after.SelectedItems) != len(before.SelectedItems) || !after.TotalPrice.Equal(before.TotalPrice) {
		t.Fatalf("expected no change, before=%+v after=%+v", before, after)
	}
}

func TestSelectAllTriState(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "1", 1), product("B", "2", 1)))
	ctx := context.Background()

	view, _ := h.component.View(ctx)
	if view.Checked || view.Indeterminate {
		t.Fatalf("none selected must be unchecked and not indeterminate: %+v", view)
	}

	view, _ = h.component.ToggleSelect(ctx, "B")
	if view.Checked || !view.Indeterminate {
		t.Fatalf("some selected must be indeterminate: %+v", view)
	}

	view, _ = h.component.SetSelectAll(ctx, true)
	if !view.Checked || view.Indeterminate || view.SelectAll != pricing.SelectAll {
		t.Fatalf("all selected must be checked: %+v", view)
	}
	if !view.TotalPrice.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected total 3, got %s", view.TotalPrice)
	}
}

func TestDeleteSelectedScenario(t *testing.T) {
	products := newStubProducts(product("A", "10", 2), product("B", "5", 1))
	h := mountHarness(t, products)
	ctx := context.Background()

	if _, err := h.component.ToggleSelect(ctx, "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	view, err := h.component.DeleteSelected(ctx)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(products.deleted) != 1 || len(products.deleted[0]) != 1 || products.deleted[0][0] != "A" {
		t.Fatalf("expected one batch delete of [A], got %v", products.deleted)
	}
	if got := ids(view.Items); len(got) != 1 || got[0] != "B" {
		t.Fatalf("expected [B] to remain, got %v", got)
	}
	if len(view.SelectedItems) != 0 || !view.TotalPrice.IsZero() {
		t.Fatalf("expected selection and total reset, got %+v", view)
	}
	n, _ := h.notifier.last()
	if n.Title != "Success" || n.Message != "Selected products have been deleted." {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestDeleteSelectedFailureLeavesList(t *testing.T) {
	products := newStubProducts(product("A", "10", 2), product("B", "5", 1))
	products.deleteErr = errors.New("record locked")
	h := mountHarness(t, products)
	ctx := context.Background()

	if _, err := h.component.SetSelectAll(ctx, true); err != nil {
		t.Fatalf("select all: %v", err)
	}
	_, err := h.component.DeleteSelected(ctx)
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	var failure *Failure
	if !errors.As(err, &failure) || failure.Kind != DeleteError || failure.Message != "record locked" {
		t.Fatalf("expected DeleteError failure, got %v", err)
	}

	view, _ := h.component.View(ctx)
	if len(view.Items) != 2 || len(view.SelectedItems) != 2 {
		t.Fatalf("expected list unchanged, got %+v", view)
	}
	n, _ := h.notifier.last()
	if n.Title != "Error Deleting Products" || n.Message != "record locked" || n.Severity != notify.SeverityError {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestDeleteSelectedNothingSelected(t *testing.T) {
	products := newStubProducts(product("A", "10", 2))
	h := mountHarness(t, products)
	before := len(h.notifier.all())

	view, err := h.component.DeleteSelected(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Items) != 1 || len(products.deleted) != 0 {
		t.Fatalf("expected no backend call, got %v", products.deleted)
	}
	if len(h.notifier.all()) != before {
		t.Fatal("expected no notification")
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	products := newStubProducts(product("A", "10", 2))
	h := mountHarness(t, products)
	ctx := context.Background()

	if _, err := h.component.ToggleSelect(ctx, "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	products.setFetchErr(pkgerrors.New(pkgerrors.CodeDependency, "products offline"))

	_, err := h.component.Load(ctx)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Kind != FetchError || failure.Message != "products offline" {
		t.Fatalf("expected FetchError, got %v", err)
	}
	view, _ := h.component.View(ctx)
	if len(view.SelectedItems) != 1 || !view.TotalPrice.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected prior state retained, got %+v", view)
	}
}

func TestLoadStartedBeforeDeleteIsDiscarded(t *testing.T) {
	products := newStubProducts(product("A", "10", 2), product("B", "5", 1))
	h := mountHarness(t, products)
	ctx := context.Background()

	if _, err := h.component.ToggleSelect(ctx, "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	release, done := products.holdNextFetch(t, h.component)

	products.set(product("B", "5", 1))
	if _, err := h.component.DeleteSelected(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	release()

	view := <-done
	if got := ids(view.Items); len(got) != 1 || got[0] != "B" {
		t.Fatalf("stale fetch must not restore deleted rows, got %v", got)
	}

	view, err := h.component.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := ids(view.Items); len(got) != 1 || got[0] != "B" {
		t.Fatalf("expected fresh load to apply, got %v", got)
	}
}

func TestOverlappingLoadsKeepNewest(t *testing.T) {
	products := newStubProducts(product("A", "10", 2))
	h := mountHarness(t, products)
	ctx := context.Background()

	release, done := products.holdNextFetch(t, h.component)

	products.set(product("A", "10", 2), product("C", "1", 1))
	view, err := h.component.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := ids(view.Items); len(got) != 2 {
		t.Fatalf("expected newest load applied, got %v", got)
	}

	release()
	view = <-done
	if got := ids(view.Items); len(got) != 2 || got[1] != "C" {
		t.Fatalf("older fetch must be discarded, got %v", got)
	}
}

func TestLoadFailureLogsCause(t *testing.T) {
	buf := &bytes.Buffer{}
	products := newStubProducts(product("A", "10", 2))
	h := mountHarness(t, products, func(o *Options) {
		o.Logger = logger.New(logger.Options{ServiceName: "test", Output: buf})
	})

	products.setFetchErr(pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("connection refused"), "failed to load cart products"))
	if _, err := h.component.Load(context.Background()); err == nil {
		t.Fatal("expected load failure")
	}

	n, _ := h.notifier.last()
	if n.Title != "Error Fetching Products" || n.Message != "failed to load cart products" {
		t.Fatalf("unexpected notification %+v", n)
	}
	if !bytes.Contains(buf.Bytes(), []byte("connection refused")) {
		t.Fatalf("expected cause in failure log, got %s", buf.String())
	}
}

func TestCartUpdatedTriggersRefetch(t *testing.T) {
	products := newStubProducts(product("A", "10", 2))
	h := mountHarness(t, products)
	ctx := context.Background()

	if _, err := h.component.ToggleSelect(ctx, "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	products.set(product("A", "10", 2), product("C", "3", 1))
	if err := h.bus.Publish(ctx, bus.CartUpdatedChannel, []byte(`{"ignored":true}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, "refetch", func() bool {
		view, _ := h.component.View(ctx)
		return len(view.Items) == 2
	})
	view, _ := h.component.View(ctx)
	if len(view.SelectedItems) != 0 || !view.TotalPrice.IsZero() {
		t.Fatalf("expected selection reset after refetch, got %+v", view)
	}
	if products.fetchCount() != 2 {
		t.Fatalf("expected 2 fetches, got %d", products.fetchCount())
	}
}

func TestRefetchPreservesSelectionWhenEnabled(t *testing.T) {
	products := newStubProducts(product("A", "10", 2), product("B", "5", 1))
	h := mountHarness(t, products, func(o *Options) { o.PreserveSelection = true })
	ctx := context.Background()

	if _, err := h.component.ToggleSelect(ctx, "B"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	products.set(product("B", "6", 1), product("D", "1", 1))
	view, err := h.component.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := ids(view.SelectedItems); len(got) != 1 || got[0] != "B" {
		t.Fatalf("expected B to stay selected, got %v", got)
	}
	if !view.TotalPrice.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("expected total from refetched price, got %s", view.TotalPrice)
	}
}

func TestQuantityDebounceCoalesces(t *testing.T) {
	products := newStubProducts(product("A", "10", 1))
	h := mountHarness(t, products)
	ctx := context.Background()

	for i, qty := range []int{2, 3, 4} {
		if i > 0 {
			h.clock.Advance(100 * time.Millisecond)
		}
		if _, err := h.component.SetQuantity(ctx, "A", qty); err != nil {
			t.Fatalf("set quantity: %v", err)
		}
	}
	if h.clock.Pending() != 1 {
		t.Fatalf("expected a single pending timer, got %d", h.clock.Pending())
	}

	// t=200ms; the last edit fires at t=1000ms
	h.clock.Advance(799 * time.Millisecond)
	expectNoUpdate(t, products)

	h.clock.Advance(time.Millisecond)
	got := expectUpdate(t, products)
	if got.ID != "A" || got.Quantity != 4 {
		t.Fatalf("expected last edit (A, 4), got %+v", got)
	}
	h.clock.Advance(time.Second)
	expectNoUpdate(t, products)

	waitFor(t, "success notification", func() bool {
		n, _ := h.notifier.last()
		return n.Message == "Quantity updated successfully."
	})
}

func TestQuantityDebounceLastWriteAcrossItems(t *testing.T) {
	products := newStubProducts(product("A", "10", 1), product("B", "5", 1))
	h := mountHarness(t, products)
	ctx := context.Background()

	if _, err := h.component.SetQuantity(ctx, "A", 5); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	h.clock.Advance(300 * time.Millisecond)
	if _, err := h.component.SetQuantity(ctx, "B", 9); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	h.clock.Advance(800 * time.Millisecond)

	got := expectUpdate(t, products)
	if got.ID != "B" || got.Quantity != 9 {
		t.Fatalf("expected only B to persist, got %+v", got)
	}
	expectNoUpdate(t, products)
}

func TestQuantityUpdateFailureNotifies(t *testing.T) {
	products := newStubProducts(product("A", "10", 1))
	products.updateErr = errors.New("quantity exceeds stock")
	h := mountHarness(t, products)

	if _, err := h.component.SetQuantity(context.Background(), "A", 40); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	h.clock.Advance(DefaultQuantityDebounce)
	expectUpdate(t, products)

	waitFor(t, "error notification", func() bool {
		n, _ := h.notifier.last()
		return n.Title == "Error Updating Quantity" && n.Message == "quantity exceeds stock"
	})
	view, _ := h.component.View(context.Background())
	if view.Items[0].Quantity != 40 {
		t.Fatalf("local quantity should stay as edited, got %d", view.Items[0].Quantity)
	}
}

func TestSetQuantityValidation(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 1)))
	ctx := context.Background()

	if _, err := h.component.SetQuantity(ctx, "A", -1); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := h.component.SetQuantity(ctx, "missing", 2); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if h.clock.Pending() != 0 {
		t.Fatalf("rejected edits must not schedule persistence, got %d timers", h.clock.Pending())
	}
	if _, err := h.component.SetQuantity(ctx, "A", 0); err != nil {
		t.Fatalf("zero quantity should be accepted: %v", err)
	}
}

func TestCheckoutPayloadIsolation(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 2), product("B", "5", 1)))
	ctx := context.Background()

	received := make(chan bus.Message, 1)
	sub, err := h.bus.Subscribe(ctx, bus.CheckoutChannel("session-1"), func(_ context.Context, msg bus.Message) {
		received <- msg
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if _, err := h.component.ToggleSelect(ctx, "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	payload, err := h.component.RequestCheckout(ctx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := h.component.ToggleSelect(ctx, "A"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, err := h.component.SetQuantity(ctx, "A", 9); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	if len(payload.SelectedProducts) != 1 || payload.SelectedProducts[0].Quantity != 2 {
		t.Fatalf("payload changed after cart mutation: %+v", payload)
	}

	var msg bus.Message
	select {
	case msg = <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("expected checkout publish")
	}
	var wire map[string][]map[string]any
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		t.Fatalf("decode wire payload: %v", err)
	}
	if len(wire["selected_products"]) != 1 || wire["selected_products"][0]["id"] != "A" {
		t.Fatalf("unexpected wire payload %s", msg.Data)
	}

	waitFor(t, "confirmation mirror", func() bool {
		items, _ := h.component.Confirmation(ctx)
		return len(items) == 1 && items[0].Quantity == 2
	})
}

func TestCheckoutMirrorAcceptsAnyPublisher(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 2)))
	ctx := context.Background()

	finalized := []LineItem{{ID: "X", Name: "Other", UnitPrice: decimal.NewFromInt(3), Quantity: 7}}
	if _, err := h.component.PublishFinalized(ctx, finalized); err != nil {
		t.Fatalf("publish finalized: %v", err)
	}
	waitFor(t, "mirror replaced", func() bool {
		items, _ := h.component.Confirmation(ctx)
		return len(items) == 1 && items[0].ID == "X"
	})

	h.component.handleCheckout(ctx, bus.Message{Channel: bus.CheckoutChannel("session-1"), Data: []byte("{not json")})
	items, err := h.component.Confirmation(ctx)
	if err != nil {
		t.Fatalf("confirmation: %v", err)
	}
	if len(items) != 1 || items[0].ID != "X" {
		t.Fatalf("malformed payload must be dropped, got %+v", items)
	}
}

func TestConfirmOrder(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 2)))
	ctx := context.Background()

	if _, err := h.component.SetSelectAll(ctx, true); err != nil {
		t.Fatalf("select all: %v", err)
	}
	if _, err := h.component.RequestCheckout(ctx); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	waitFor(t, "confirmation mirror", func() bool {
		items, _ := h.component.Confirmation(ctx)
		return len(items) == 1
	})

	id, err := h.component.ConfirmOrder(ctx)
	if err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if id != "order-1" {
		t.Fatalf("unexpected order id %q", id)
	}
	if len(h.orders.calls) != 1 {
		t.Fatalf("expected one create-order call, got %d", len(h.orders.calls))
	}
	line := h.orders.calls[0][0]
	if line.ProductID != "A" || line.ProductName != "Product A" || !line.ProductPrice.Equal(decimal.NewFromInt(10)) || line.Quantity != 2 || line.PictureURL == "" {
		t.Fatalf("unexpected order line %+v", line)
	}
	n, _ := h.notifier.last()
	if n.Title != "Success" || n.Message != "Order created successfully" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestConfirmOrderFailureAndEmpty(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 2)))
	ctx := context.Background()

	if _, err := h.component.ConfirmOrder(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty confirmation, got %v", err)
	}
	if len(h.orders.calls) != 0 {
		t.Fatal("empty confirmation must not call the backend")
	}

	h.orders.err = errors.New("order service down")
	if _, err := h.component.PublishFinalized(ctx, []LineItem{{ID: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}); err != nil {
		t.Fatalf("publish finalized: %v", err)
	}
	waitFor(t, "confirmation mirror", func() bool {
		items, _ := h.component.Confirmation(ctx)
		return len(items) == 1
	})

	_, err := h.component.ConfirmOrder(ctx)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Kind != OrderCreationError {
		t.Fatalf("expected OrderCreationError, got %v", err)
	}
	n, _ := h.notifier.last()
	if n.Title != "Error creating order" || n.Message != "order service down" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestConfirmOrderSkipsZeroQuantityLines(t *testing.T) {
	h := mountHarness(t, newStubProducts(product("A", "10", 2)))
	ctx := context.Background()

	finalized := []LineItem{
		{ID: "A", Name: "Product A", UnitPrice: decimal.NewFromInt(10), Quantity: 2},
		{ID: "B", Name: "Product B", UnitPrice: decimal.NewFromInt(5), Quantity: 0},
	}
	if _, err := h.component.PublishFinalized(ctx, finalized); err != nil {
		t.Fatalf("publish finalized: %v", err)
	}
	waitFor(t, "confirmation mirror", func() bool {
		items, _ := h.component.Confirmation(ctx)
		return len(items) == 2
	})

	if _, err := h.component.ConfirmOrder(ctx); err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if len(h.orders.calls) != 1 || len(h.orders.calls[0]) != 1 || h.orders.calls[0][0].ProductID != "A" {
		t.Fatalf("expected only the non-zero line, got %+v", h.orders.calls)
	}

	if _, err := h.component.PublishFinalized(ctx, finalized[1:]); err != nil {
		t.Fatalf("publish finalized: %v", err)
	}
	waitFor(t, "zero-only mirror", func() bool {
		items, _ := h.component.Confirmation(ctx)
		return len(items) == 1 && items[0].ID == "B"
	})
	if _, err := h.component.ConfirmOrder(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error when every line is zero, got %v", err)
	}
	if len(h.orders.calls) != 1 {
		t.Fatalf("zero-only confirmation must not call the backend, got %d calls", len(h.orders.calls))
	}
	n, _ := h.notifier.last()
	if n.Message != "No products to order." {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestWizardThroughComponent(t *testing.T) {
	h := mountHarness(t, newStubProducts())
	ctx := context.Background()

	state, _ := h.component.NextStep(ctx)
	if state.Step != wizard.StepDateSelect || !state.NextDisabled {
		t.Fatalf("expected step 2 with next disabled, got %+v", state)
	}
	state, _ = h.component.NextStep(ctx)
	if state.Step != wizard.StepDateSelect {
		t.Fatalf("next without date must stay on step 2, got %+v", state)
	}
	if _, err := h.component.SetDate(ctx, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("set date: %v", err)
	}
	state, _ = h.component.NextStep(ctx)
	if state.Step != wizard.StepConfirmation {
		t.Fatalf("expected step 3, got %+v", state)
	}
	if _, err := h.component.ClearDate(ctx); err != nil {
		t.Fatalf("clear date: %v", err)
	}
	state, _ = h.component.PreviousStep(ctx)
	if state.Step != wizard.StepDateSelect {
		t.Fatalf("previous from step 3 must return to step 2, got %+v", state)
	}
	state, _ = h.component.Wizard(ctx)
	if state.SelectedDate != nil {
		t.Fatalf("expected cleared date, got %v", state.SelectedDate)
	}
}

func TestCloseCancelsPendingQuantityAndRejectsOperations(t *testing.T) {
	products := newStubProducts(product("A", "10", 1))
	h := mountHarness(t, products)
	ctx := context.Background()

	if _, err := h.component.SetQuantity(ctx, "A", 3); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := h.component.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if h.clock.Pending() != 0 {
		t.Fatalf("expected timer stopped on close, got %d", h.clock.Pending())
	}
	h.clock.Advance(time.Second)
	expectNoUpdate(t, products)

	if _, err := h.component.View(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict after close, got %v", err)
	}
	if _, err := h.component.Load(ctx); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict after close, got %v", err)
	}
	if err := h.component.Close(ctx); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

package cart

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/cartflow/pkg/bus"
	"github.com/angelmondragon/cartflow/pkg/notify"
	"github.com/shopspring/decimal"
)

type stubProducts struct {
	mu        sync.Mutex
	products  []Product
	fetchErr  error
	deleteErr error
	updateErr error
	fetches   int
	deleted   [][]string
	updates   chan Product
	// fetchGate, when set, holds the next fetch after it has read the rows.
	fetchGate chan chan struct{}
}

func newStubProducts(products ...Product) *stubProducts {
	return &stubProducts{products: products, updates: make(chan Product, 16)}
}

func (s *stubProducts) FetchProducts(context.Context) ([]Product, error) {
	s.mu.Lock()
	s.fetches++
	if s.fetchErr != nil {
		s.mu.Unlock()
		return nil, s.fetchErr
	}
	rows := append([]Product(nil), s.products...)
	gate := s.fetchGate
	s.fetchGate = nil
	s.mu.Unlock()

	if gate != nil {
		release := make(chan struct{})
		gate <- release
		<-release
	}
	return rows, nil
}

// holdNextFetch starts a Load whose fetch reads the current rows and then
// blocks. It returns a release func and a channel with the Load result.
func (s *stubProducts) holdNextFetch(t *testing.T, c *Component) (func(), <-chan CartView) {
	t.Helper()
	gate := make(chan chan struct{}, 1)
	s.mu.Lock()
	s.fetchGate = gate
	s.mu.Unlock()

	done := make(chan CartView, 1)
	go func() {
		view, _ := c.Load(context.Background())
		done <- view
	}()

	select {
	case release := <-gate:
		return func() { close(release) }, done
	case <-time.After(2 * time.Second):
		t.Fatal("held fetch never started")
		return nil, nil
	}
}

func (s *stubProducts) DeleteProducts(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, append([]string(nil), ids...))
	return nil
}

func (s *stubProducts) UpdateProductQuantity(_ context.Context, product Product) error {
	s.mu.Lock()
	err := s.updateErr
	s.mu.Unlock()
	s.updates <- product
	return err
}

func (s *stubProducts) set(products ...Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

func (s *stubProducts) setFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

func (s *stubProducts) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

type stubOrders struct {
	mu    sync.Mutex
	id    string
	err   error
	calls [][]OrderLine
}

func (s *stubOrders) CreateOrder(_ context.Context, lines []OrderLine) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]OrderLine(nil), lines...))
	if s.err != nil {
		return "", s.err
	}
	return s.id, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

func (r *recordingNotifier) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.items...)
}

func (r *recordingNotifier) last() (notify.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return notify.Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// fakeClock fires timers only from Advance, in the calling goroutine.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			count++
		}
	}
	return count
}

type harness struct {
	component *Component
	products  *stubProducts
	orders    *stubOrders
	notifier  *recordingNotifier
	bus       *bus.Memory
	clock     *fakeClock
}

func mountHarness(t *testing.T, products *stubProducts, mutate ...func(*Options)) *harness {
	t.Helper()

	h := &harness{
		products: products,
		orders:   &stubOrders{id: "order-1"},
		notifier: &recordingNotifier{},
		bus:      bus.NewMemory(16, nil),
		clock:    &fakeClock{},
	}
	opts := Options{
		SessionID: "session-1",
		Products:  h.products,
		Orders:    h.orders,
		Bus:       h.bus,
		Notifier:  h.notifier,
		Clock:     h.clock,
	}
	for _, fn := range mutate {
		fn(&opts)
	}

	component, err := Mount(context.Background(), opts)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	h.component = component
	t.Cleanup(func() {
		_ = component.Close(context.Background())
		_ = h.bus.Close()
	})
	return h
}

func product(id string, price string, qty int) Product {
	return Product{
		ID:         id,
		Name:       "Product " + id,
		MSRP:       decimal.RequireFromString(price),
		Quantity:   qty,
		PictureURL: "https://cdn.example.com/" + id + ".png",
	}
}

// assertDerived checks the selected and total invariants of a view.
func assertDerived(t *testing.T, view CartView) {
	t.Helper()

	want := decimal.Zero
	var selected []string
	for _, item := range view.Items {
		if item.Selected {
			selected = append(selected, item.ID)
			want = want.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	if !view.TotalPrice.Equal(want.Round(2)) {
		t.Fatalf("total %s does not match selected sum %s", view.TotalPrice, want.Round(2))
	}
	if len(selected) != len(view.SelectedItems) {
		t.Fatalf("selected items %v do not match filter %v", ids(view.SelectedItems), selected)
	}
	for i, id := range selected {
		if view.SelectedItems[i].ID != id {
			t.Fatalf("selected items %v do not match filter %v", ids(view.SelectedItems), selected)
		}
	}
}

func ids(items []LineItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func expectUpdate(t *testing.T, products *stubProducts) Product {
	t.Helper()
	select {
	case p := <-products.updates:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("expected a quantity update call")
	}
	return Product{}
}

func expectNoUpdate(t *testing.T, products *stubProducts) {
	t.Helper()
	select {
	case p := <-products.updates:
		t.Fatalf("unexpected quantity update %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

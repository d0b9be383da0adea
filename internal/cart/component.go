// Package cart implements a cart session: the cart view-model, debounced
// quantity persistence, the checkout hand-off over the bus, the checkout
// wizard and order submission.
//
// All session state is owned by one event-loop goroutine. Public operations
// submit work to the loop in FIFO order and wait for it. Backend calls run
// outside the loop and their results are applied by a later loop event.
package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/cartflow/internal/pricing"
	"github.com/angelmondragon/cartflow/internal/wizard"
	"github.com/angelmondragon/cartflow/pkg/bus"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/metrics"
	"github.com/angelmondragon/cartflow/pkg/notify"
	"go.uber.org/multierr"
)

// DefaultQuantityDebounce is the delay before a quantity edit is persisted.
const DefaultQuantityDebounce = 800 * time.Millisecond

// Options wires a component to its collaborators.
type Options struct {
	SessionID string
	Products  ProductStore
	Orders    OrderCreator
	Bus       bus.Bus
	Notifier  notify.Notifier
	Logger    *logger.Logger
	Metrics   *metrics.CartMetrics
	Clock     Clock

	QuantityDebounce time.Duration
	// PreserveSelection keeps selection by id across refetches.
	PreserveSelection bool
}

// Component is one mounted cart session.
type Component struct {
	sessionID         string
	products          ProductStore
	orders            OrderCreator
	bus               bus.Bus
	notifier          notify.Notifier
	logg              *logger.Logger
	metrics           *metrics.CartMetrics
	clock             Clock
	debounce          time.Duration
	preserveSelection bool

	events  chan func()
	stop    chan struct{}
	stopped chan struct{}

	baseCtx context.Context
	cancel  context.CancelFunc

	mu        sync.Mutex
	closing   bool
	mounted   bool
	subs      map[string]bus.Subscription
	inflight  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	// owned by the loop goroutine
	items        []LineItem
	summary      pricing.Summary
	wizard       *wizard.Controller
	confirmation []LineItem
	quantity     debounceState
	loads        loadOrder
}

// Mount starts the session loop, subscribes to the cart-updated and checkout
// channels and runs the initial load. A failed initial load is reported
// through the notifier and does not fail the mount.
func Mount(ctx context.Context, opts Options) (*Component, error) {
	c, err := newComponent(opts)
	if err != nil {
		return nil, err
	}
	go c.run()

	if err := c.subscribeChannels(ctx); err != nil {
		closeErr := c.Close(context.Background())
		return nil, multierr.Append(err, closeErr)
	}

	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	c.logg.Info(c.logCtx(ctx), "cart.session.mounted")
	c.metrics.SessionMounted()
	_, _ = c.Load(ctx)
	return c, nil
}

func newComponent(opts Options) (*Component, error) {
	opts.SessionID = strings.TrimSpace(opts.SessionID)
	if opts.SessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	if opts.Products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if opts.Orders == nil {
		return nil, fmt.Errorf("order creator required")
	}
	if opts.Bus == nil {
		return nil, fmt.Errorf("bus required")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Multi{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.QuantityDebounce <= 0 {
		opts.QuantityDebounce = DefaultQuantityDebounce
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	c := &Component{
		sessionID:         opts.SessionID,
		products:          opts.Products,
		orders:            opts.Orders,
		bus:               opts.Bus,
		notifier:          opts.Notifier,
		logg:              opts.Logger,
		metrics:           opts.Metrics,
		clock:             opts.Clock,
		debounce:          opts.QuantityDebounce,
		preserveSelection: opts.PreserveSelection,
		events:            make(chan func()),
		stop:              make(chan struct{}),
		stopped:           make(chan struct{}),
		cancel:            cancel,
		subs:              map[string]bus.Subscription{},
		wizard:            wizard.New(),
		summary:           pricing.Summarize(nil),
	}
	c.baseCtx = opts.Logger.WithSessionID(baseCtx, opts.SessionID)
	return c, nil
}

func (c *Component) SessionID() string {
	return c.sessionID
}

func (c *Component) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.stop:
			return
		case task := <-c.events:
			task()
		}
	}
}

// call runs fn on the loop and waits for it to finish.
func (c *Component) call(ctx context.Context, fn func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reply := make(chan struct{})
	task := func() {
		defer close(reply)
		fn()
	}

	select {
	case <-c.stopped:
		return errClosed()
	case <-ctx.Done():
		return ctx.Err()
	case c.events <- task:
	}

	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		select {
		case <-reply:
			return nil
		default:
			return errClosed()
		}
	}
}

// track runs fn as in-flight work that Close waits for. It reports false when
// the component is closing and fn was not run.
func (c *Component) track(fn func()) bool {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return false
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	defer c.inflight.Done()
	fn()
	return true
}

// goTrack runs fn in a tracked goroutine.
func (c *Component) goTrack(fn func()) {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		fn()
	}()
}

func (c *Component) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

func (c *Component) logCtx(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.logg.WithSessionID(ctx, c.sessionID)
}

// logFailure logs a backend failure with its cause chain.
func (c *Component) logFailure(ctx context.Context, event string, err error) {
	c.logg.Error(c.logg.WithFields(c.logCtx(ctx), pkgerrors.Dump(err).Fields()), event, err)
}

// observe times a backend call.
func (c *Component) observe(operation string, fn func() error) error {
	started := time.Now()
	err := fn()
	c.metrics.ObserveCall(operation, time.Since(started), err)
	return err
}

// Close cancels the pending quantity timer, unsubscribes both channels,
// waits for in-flight backend work and stops the loop. When ctx expires
// before in-flight work finishes, their contexts are cancelled.
func (c *Component) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.closeOnce.Do(func() {
		var errs error

		c.mu.Lock()
		subs := c.subs
		c.subs = map[string]bus.Subscription{}
		c.mu.Unlock()
		for channel, sub := range subs {
			if err := sub.Unsubscribe(); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("unsubscribe %s: %w", channel, err))
			}
		}

		if err := c.call(ctx, c.cancelQuantity); err != nil {
			errs = multierr.Append(errs, err)
		}

		c.mu.Lock()
		c.closing = true
		mounted := c.mounted
		c.mu.Unlock()

		waited := make(chan struct{})
		go func() {
			c.inflight.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-ctx.Done():
			c.cancel()
			<-waited
			errs = multierr.Append(errs, ctx.Err())
		}

		close(c.stop)
		<-c.stopped
		c.cancel()

		if mounted {
			c.metrics.SessionUnmounted()
		}
		c.logg.Info(c.logCtx(ctx), "cart.session.closed")
		c.closeErr = errs
	})
	return c.closeErr
}

package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/angelmondragon/cartflow/pkg/logger"
)

const defaultQueueSize = 64

// Memory is an in-process bus. Each subscription owns a queue drained by its
// own goroutine, so a slow handler never stalls publishers or other
// subscribers. A full queue drops the delivery.
type Memory struct {
	mu        sync.RWMutex
	subs      map[string]map[uint64]*memorySub
	nextID    atomic.Uint64
	queueSize int
	closed    bool
	logg      *logger.Logger
	dropped   atomic.Int64
}

// NewMemory builds an in-process bus. queueSize <= 0 uses the default.
func NewMemory(queueSize int, logg *logger.Logger) *Memory {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Memory{
		subs:      map[string]map[uint64]*memorySub{},
		queueSize: queueSize,
		logg:      logg,
	}
}

type memorySub struct {
	id      uint64
	channel string
	bus     *Memory
	queue   chan Message
	done    chan struct{}
	once    sync.Once
}

func (s *memorySub) Channel() string { return s.channel }

func (s *memorySub) Unsubscribe() error {
	s.once.Do(func() {
		s.bus.remove(s)
		close(s.done)
	})
	return nil
}

func (s *memorySub) run(handler Handler) {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.queue:
			handler(context.Background(), msg)
		}
	}
}

// Subscribe registers handler on channel.
func (m *Memory) Subscribe(ctx context.Context, channel string, handler Handler) (Subscription, error) {
	if err := validate(channel, handler); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	sub := &memorySub{
		id:      m.nextID.Add(1),
		channel: channel,
		bus:     m,
		queue:   make(chan Message, m.queueSize),
		done:    make(chan struct{}),
	}
	if m.subs[channel] == nil {
		m.subs[channel] = map[uint64]*memorySub{}
	}
	m.subs[channel][sub.id] = sub
	go sub.run(handler)
	return sub, nil
}

// Publish fans data out to every current subscriber of channel.
func (m *Memory) Publish(ctx context.Context, channel string, data []byte) error {
	if channel == "" {
		return ErrChannelMissing
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	targets := make([]*memorySub, 0, len(m.subs[channel]))
	for _, sub := range m.subs[channel] {
		targets = append(targets, sub)
	}
	m.mu.RUnlock()

	for _, sub := range targets {
		// each subscriber gets its own copy of the payload
		msg := Message{Channel: channel, Data: append([]byte(nil), data...)}
		select {
		case <-sub.done:
		case sub.queue <- msg:
		default:
			m.dropped.Add(1)
			m.logg.Warn(m.logg.WithField(ctx, "channel", channel), "bus.delivery_dropped")
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions on channel.
func (m *Memory) Subscribers(channel string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs[channel])
}

// Dropped returns how many deliveries were discarded because a queue was full.
func (m *Memory) Dropped() int64 {
	return m.dropped.Load()
}

// Close unsubscribes everyone and rejects later calls.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	all := []*memorySub{}
	for _, subs := range m.subs {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	m.mu.Unlock()

	for _, sub := range all {
		_ = sub.Unsubscribe()
	}
	return nil
}

func (m *Memory) remove(sub *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if subs, ok := m.subs[sub.channel]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(m.subs, sub.channel)
		}
	}
}

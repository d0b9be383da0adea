// Package sessions mounts and tracks cart sessions.
package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/cartflow/internal/cart"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/notify"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Session is one mounted cart with its notification feed.
type Session struct {
	ID        string
	Cart      *cart.Component
	Feed      *notify.Feed
	CreatedAt time.Time
}

// Config carries the collaborators shared by every session. SessionID and
// Notifier in Template are set per session.
type Config struct {
	Template   cart.Options
	FeedLimit  int
	Logger     *logger.Logger
	NewID      func() string
	MountCart  func(ctx context.Context, opts cart.Options) (*cart.Component, error)
	Notifier   notify.Notifier
	CloseGrace time.Duration
}

// Manager owns every mounted session.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Template.Products == nil || cfg.Template.Orders == nil || cfg.Template.Bus == nil {
		return nil, fmt.Errorf("cart collaborators required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	if cfg.MountCart == nil {
		cfg.MountCart = cart.Mount
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = 5 * time.Second
	}
	if cfg.Template.Logger == nil {
		cfg.Template.Logger = cfg.Logger
	}
	return &Manager{cfg: cfg, sessions: map[string]*Session{}}, nil
}

// Mount creates a session and runs its initial load.
func (m *Manager) Mount(ctx context.Context) (*Session, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session manager is closed")
	}

	id := m.cfg.NewID()
	feed := notify.NewFeed(m.cfg.FeedLimit)
	opts := m.cfg.Template
	opts.SessionID = id
	opts.Notifier = notify.Multi{feed, m.cfg.Notifier}

	component, err := m.cfg.MountCart(ctx, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mount cart session")
	}

	session := &Session{ID: id, Cart: component, Feed: feed, CreatedAt: time.Now().UTC()}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = component.Close(ctx)
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session manager is closed")
	}
	m.sessions[id] = session
	m.mu.Unlock()

	m.cfg.Logger.Info(m.cfg.Logger.WithSessionID(ctx, id), "sessions.mounted")
	return session, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	return session, nil
}

// Unmount closes and forgets a session.
func (m *Manager) Unmount(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}

	if err := session.Cart.Close(ctx); err != nil {
		m.cfg.Logger.Error(m.cfg.Logger.WithSessionID(ctx, id), "sessions.unmount_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to close cart session")
	}
	m.cfg.Logger.Info(m.cfg.Logger.WithSessionID(ctx, id), "sessions.unmounted")
	return nil
}

// IDs returns the mounted session ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close unmounts every session. Later mounts fail.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.cfg.CloseGrace)
	defer cancel()

	var (
		errs error
		mu   sync.Mutex
		wg   sync.WaitGroup
	)
	for id, session := range sessions {
		wg.Add(1)
		go func(id string, session *Session) {
			defer wg.Done()
			if err := session.Cart.Close(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("session %s: %w", id, err))
				mu.Unlock()
			}
		}(id, session)
	}
	wg.Wait()
	return errs
}

package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arelunainstituto/financeerp/internal/client/events"
	"github.com/arelunainstituto/financeerp/internal/domain"
)

// State is the monitor's authentication state.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// API is the server capability the monitor consumes.
type API interface {
	Login(ctx context.Context, email, password string) (token string, identity *domain.Identity, err error)
	Verify(ctx context.Context, token string) (valid bool, identity *domain.Identity, err error)
}

// MonitorConfig tunes the monitor's timers.
type MonitorConfig struct {
	// BackstopInterval is how often the local credential presence is
	// re-checked while authenticated. No network call is involved; this
	// only catches out-of-band storage removal.
	BackstopInterval time.Duration
	// VerifyTimeout bounds the server verification round trip so a hung
	// call resolves to the fail-safe branch instead of wedging LOADING.
	VerifyTimeout time.Duration
}

// Monitor reconciles the locally stored session against server-confirmed
// validity and collapses to logged-out the moment they diverge. Stored
// state that cannot be confirmed (invalid, network fault, timeout) is
// cleared: forcing a re-login is preferred over trusting stale claims.
type Monitor struct {
	store  Store
	api    API
	bus    *events.Bus
	logger *zap.Logger
	cfg    MonitorConfig

	mu          sync.Mutex
	state       State
	identity    *domain.Identity
	reconciling bool
	// seq orders session-changing operations. Login, logout and bus
	// invalidations bump it; a reconciliation that started under an older
	// seq discards its result, so a stale verify response can never
	// resurrect a session that was logged out meanwhile.
	seq uint64

	onChange     func(State)
	unsubscribe  func()
	stopBackstop chan struct{}
	closeOnce    sync.Once
}

// NewMonitor builds a monitor in the LOADING state.
func NewMonitor(store Store, api API, bus *events.Bus, logger *zap.Logger, cfg MonitorConfig) *Monitor {
	if cfg.BackstopInterval <= 0 {
		cfg.BackstopInterval = 5 * time.Minute
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 15 * time.Second
	}
	return &Monitor{
		store:        store,
		api:          api,
		bus:          bus,
		logger:       logger,
		cfg:          cfg,
		state:        StateLoading,
		stopBackstop: make(chan struct{}),
	}
}

// OnChange registers a hook invoked after every state transition, outside
// the monitor's lock. Must be set before Start.
func (m *Monitor) OnChange(fn func(State)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Start subscribes to the invalidation bus, runs the initial
// reconciliation, and starts the backstop timer.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	m.unsubscribe = m.bus.Subscribe(m.handleInvalidation)
	m.mu.Unlock()

	m.Reconcile(ctx)

	go m.backstopLoop()
}

// Reconcile checks the stored session against the server. A call while a
// reconciliation is already in flight is a no-op: interleaving two
// attempts could let a stale response win over a fresher one.
func (m *Monitor) Reconcile(ctx context.Context) {
	m.mu.Lock()
	if m.reconciling {
		m.mu.Unlock()
		return
	}
	m.reconciling = true
	startSeq := m.seq
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.reconciling = false
		m.mu.Unlock()
	}()

	record, err := m.store.Load(ctx)
	if err != nil || record == nil {
		m.applyResult(startSeq, StateUnauthenticated, nil)
		return
	}

	verifyCtx, cancel := context.WithTimeout(ctx, m.cfg.VerifyTimeout)
	defer cancel()

	valid, identity, err := m.api.Verify(verifyCtx, record.Token)
	switch {
	case err == nil && valid:
		m.applyResult(startSeq, StateAuthenticated, identity)
	default:
		// Invalid, auth rejection, network fault or timeout: the stored
		// data cannot be trusted, so it is cleared and the user must log
		// in again.
		if err != nil {
			m.logger.Info("session verification failed, clearing local session", zap.Error(err))
		} else {
			m.logger.Info("server declined session, clearing local session")
		}
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.logger.Warn("failed to clear session", zap.Error(clearErr))
		}
		m.applyResult(startSeq, StateUnauthenticated, nil)
	}
}

// Login bypasses reconciliation: authenticate, persist both entries
// atomically, and transition straight to AUTHENTICATED. A persistence
// fault is surfaced because a login that did not fully persist must be
// reported, and leaves the monitor unauthenticated.
func (m *Monitor) Login(ctx context.Context, email, password string) error {
	token, identity, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if err := m.store.Save(ctx, token, *identity); err != nil {
		m.setState(StateUnauthenticated, nil)
		return err
	}

	m.setState(StateAuthenticated, identity)
	return nil
}

// Logout clears the stored session and transitions to UNAUTHENTICATED
// regardless of the current state. The transition happens even when the
// clear fails; the fault is still returned so the caller can report an
// incomplete logout.
func (m *Monitor) Logout(ctx context.Context) error {
	err := m.store.Clear(ctx)
	m.setState(StateUnauthenticated, nil)
	return err
}

// State returns the current authentication state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the authenticated identity, or nil.
func (m *Monitor) Identity() *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Close unsubscribes from the bus and cancels the backstop timer so no
// handle keeps firing against a torn-down session.
func (m *Monitor) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		unsub := m.unsubscribe
		m.unsubscribe = nil
		m.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		close(m.stopBackstop)
	})
}

// handleInvalidation is the bus callback: an API call site saw a server
// rejection. The call site already cleared the store; here only the
// in-memory identity is dropped, immediately and unconditionally.
func (m *Monitor) handleInvalidation() {
	m.logger.Info("session invalidation signal received")
	m.setState(StateUnauthenticated, nil)
}

// backstopLoop re-checks local credential presence on a fixed interval
// while authenticated. It exists solely to catch out-of-band removal of
// the stored credential, not to replace server-side checks.
func (m *Monitor) backstopLoop() {
	ticker := time.NewTicker(m.cfg.BackstopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopBackstop:
			return
		case <-ticker.C:
			if m.State() != StateAuthenticated {
				continue
			}
			record, err := m.store.Load(context.Background())
			if err != nil || record == nil {
				m.logger.Info("stored credential gone, logging out")
				m.setState(StateUnauthenticated, nil)
			}
		}
	}
}

// setState bumps the sequence (invalidating in-flight reconciliations)
// and applies the transition.
func (m *Monitor) setState(state State, identity *domain.Identity) {
	m.mu.Lock()
	m.seq++
	changed := m.state != state
	m.state = state
	m.identity = identity
	hook := m.onChange
	m.mu.Unlock()

	if changed && hook != nil {
		hook(state)
	}
}

// applyResult applies a reconciliation outcome unless a session-changing
// operation happened after the reconciliation started, in which case the
// result is stale and dropped (causal last-writer-wins).
func (m *Monitor) applyResult(startSeq uint64, state State, identity *domain.Identity) {
	m.mu.Lock()
	if m.seq != startSeq {
		m.mu.Unlock()
		m.logger.Debug("discarding stale reconciliation result")
		return
	}
	changed := m.state != state
	m.state = state
	m.identity = identity
	hook := m.onChange
	m.mu.Unlock()

	if changed && hook != nil {
		hook(state)
	}
}

package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"coursegate/internal/claims/authz"
	"coursegate/internal/claims/models"
	"coursegate/internal/identity"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
	"coursegate/pkg/requestcontext"
)

//go:generate mockgen -source=manager.go -destination=mocks/session-mocks.go -package=mocks Resolver,Authenticator

// Resolver resolves claims for a session.
type Resolver interface {
	Cached(ctx context.Context, session *models.Session) (*models.Claims, bool)
	Resolve(ctx context.Context, session *models.Session, tok *oauth2.Token) (*models.Claims, error)
	Refresh(ctx context.Context, session *models.Session, tok *oauth2.Token) (*models.Claims, error)
	Forget(ctx context.Context) error
}

// Authenticator ends the identity-provider session.
type Authenticator interface {
	SignOut(ctx context.Context) error
}

const (
	DefaultTokenRefreshInterval    = 50 * time.Minute
	DefaultInactivityThreshold     = 30 * time.Minute
	DefaultInactivityCheckInterval = time.Minute

	inactivityMessage = "You were signed out after a period of inactivity."
)

// Manager owns the application's authorization state. Run is the only
// writer; everything else reads snapshots or posts commands to it.
type Manager struct {
	resolver Resolver
	auth     Authenticator
	logger   *slog.Logger
	clock    func() time.Time
	observer func(State)

	tokenRefreshInterval    time.Duration
	inactivityThreshold     time.Duration
	inactivityCheckInterval time.Duration

	current      atomic.Pointer[snapshot]
	lastActivity atomic.Int64
	running      atomic.Bool
	commands     chan command
	results      chan resolution

	// Owned by the Run goroutine.
	generation uint64
	raw        oauth2.TokenSource
	tokens     oauth2.TokenSource
	inflight   sync.WaitGroup
}

type snapshot struct {
	state   State
	changed chan struct{}
}

type command struct {
	run  func(ctx context.Context) error
	done chan error
}

type resolution struct {
	generation uint64
	subject    id.SubjectID
	claims     *models.Claims
	err        error
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func WithTokenRefreshInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.tokenRefreshInterval = d
		}
	}
}

// WithInactivity sets how long a signed-in user may stay idle and how often
// idleness is checked.
func WithInactivity(threshold, checkEvery time.Duration) Option {
	return func(m *Manager) {
		if threshold > 0 {
			m.inactivityThreshold = threshold
		}
		if checkEvery > 0 {
			m.inactivityCheckInterval = checkEvery
		}
	}
}

// WithObserver registers fn to be called from the writer goroutine after
// every state change. fn must not block.
func WithObserver(fn func(State)) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

func New(resolver Resolver, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		resolver:                resolver,
		auth:                    auth,
		logger:                  slog.Default(),
		clock:                   time.Now,
		tokenRefreshInterval:    DefaultTokenRefreshInterval,
		inactivityThreshold:     DefaultInactivityThreshold,
		inactivityCheckInterval: DefaultInactivityCheckInterval,
		commands:                make(chan command),
		results:                 make(chan resolution),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.current.Store(&snapshot{state: signedOut(m.clock(), ""), changed: make(chan struct{})})
	return m
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() State {
	return m.current.Load().state
}

// WaitFor blocks until pred holds for the current state or ctx is done.
func (m *Manager) WaitFor(ctx context.Context, pred func(State) bool) (State, error) {
	for {
		snap := m.current.Load()
		if pred(snap.state) {
			return snap.state, nil
		}
		select {
		case <-snap.changed:
		case <-ctx.Done():
			return snap.state, ctx.Err()
		}
	}
}

// Touch records user activity for the inactivity timer.
func (m *Manager) Touch() {
	m.lastActivity.Store(m.clock().UnixNano())
}

func (m *Manager) HasRole(role id.Role) bool {
	return authz.HasRole(m.Snapshot().Claims, role)
}

func (m *Manager) HasAnyRole(roles ...id.Role) bool {
	return authz.HasAnyRole(m.Snapshot().Claims, roles...)
}

func (m *Manager) HasPermission(p id.Permission) bool {
	return authz.HasPermission(m.Snapshot().Claims, p)
}

// Run consumes auth events and timer ticks until ctx is done or events is
// closed. It must be called once.
func (m *Manager) Run(ctx context.Context, events <-chan identity.AuthEvent) error {
	if !m.running.CompareAndSwap(false, true) {
		return dErrors.New(dErrors.CodeInternal, "session manager already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		m.inflight.Wait()
	}()

	refresh := time.NewTicker(m.tokenRefreshInterval)
	defer refresh.Stop()
	inactivity := time.NewTicker(m.inactivityCheckInterval)
	defer inactivity.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			m.handleAuthEvent(ctx, ev)
		case res := <-m.results:
			m.applyResolution(ctx, res)
		case cmd := <-m.commands:
			cmd.done <- cmd.run(ctx)
		case <-refresh.C:
			m.refreshToken(ctx)
		case <-inactivity.C:
			m.checkInactivity(ctx)
		}
	}
}

// RefreshClaims re-fetches claims from the backend, bypassing the cache.
// It returns once the refresh has started; watch the state for its result.
func (m *Manager) RefreshClaims(ctx context.Context) error {
	return m.submit(ctx, func(runCtx context.Context) error {
		st := m.Snapshot()
		if st.Session == nil {
			return dErrors.New(dErrors.CodeUnauthorized, "not signed in")
		}
		m.publish(State{
			Status:    StatusResolving,
			Session:   st.Session,
			Claims:    st.Claims,
			UpdatedAt: m.clock(),
		})
		m.startResolution(runCtx, st.Session, true)
		return nil
	})
}

// Logout clears the state and signs the user out of the identity provider.
func (m *Manager) Logout(ctx context.Context) error {
	return m.submit(ctx, func(runCtx context.Context) error {
		if m.Snapshot().Session == nil {
			return nil
		}
		m.clear(runCtx, "")
		m.signOutProvider(runCtx)
		return nil
	})
}

func (m *Manager) submit(ctx context.Context, fn func(context.Context) error) error {
	cmd := command{run: fn, done: make(chan error, 1)}
	select {
	case m.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) handleAuthEvent(ctx context.Context, ev identity.AuthEvent) {
	switch ev.Kind {
	case identity.EventSignedIn:
		if ev.Session == nil || ev.Tokens == nil {
			m.logger.WarnContext(ctx, "ignoring incomplete sign-in event")
			return
		}
		m.signIn(ctx, ev.Session, ev.Tokens)
	case identity.EventSignedOut:
		st := m.Snapshot()
		if st.Session == nil {
			return
		}
		if ev.Session != nil && ev.Session.SubjectID != st.Session.SubjectID {
			return
		}
		m.clear(ctx, "")
	default:
		m.logger.WarnContext(ctx, "unknown auth event", "kind", string(ev.Kind))
	}
}

func (m *Manager) signIn(ctx context.Context, session *models.Session, src oauth2.TokenSource) {
	m.generation++
	m.raw = src
	m.tokens = oauth2.ReuseTokenSource(nil, src)
	m.Touch()

	sess := *session
	if claims, ok := m.resolver.Cached(requestcontext.WithTime(ctx, m.clock()), &sess); ok {
		m.logger.InfoContext(ctx, "claims applied from cache", "subject", sess.SubjectID.String())
		m.publish(State{Status: StatusReady, Session: &sess, Claims: claims, UpdatedAt: m.clock()})
		return
	}
	m.publish(State{Status: StatusResolving, Session: &sess, UpdatedAt: m.clock()})
	m.startResolution(ctx, &sess, false)
}

// startResolution fetches claims off the writer goroutine and posts the
// result back through m.results.
func (m *Manager) startResolution(ctx context.Context, session *models.Session, force bool) {
	res := resolution{generation: m.generation, subject: session.SubjectID}
	tokens := m.tokens

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx := requestcontext.WithTime(ctx, m.clock())
		tok, err := tokens.Token()
		if err != nil {
			res.err = dErrors.Wrap(err, dErrors.CodeClaimsUnavailable, "id token unavailable")
		} else if force {
			res.claims, res.err = m.resolver.Refresh(ctx, session, tok)
		} else {
			res.claims, res.err = m.resolver.Resolve(ctx, session, tok)
		}
		select {
		case m.results <- res:
		case <-ctx.Done():
		}
	}()
}

func (m *Manager) applyResolution(ctx context.Context, res resolution) {
	st := m.Snapshot()
	if res.generation != m.generation || st.Session == nil || st.Session.SubjectID != res.subject {
		m.logger.DebugContext(ctx, "discarding claims for a superseded session", "subject", res.subject.String())
		return
	}
	if res.err != nil {
		m.logger.WarnContext(ctx, "claims unavailable, locking session",
			"subject", res.subject.String(),
			"error", res.err,
		)
		m.publish(State{
			Status:    StatusLocked,
			Session:   st.Session,
			Message:   dErrors.UserMessage(res.err),
			UpdatedAt: m.clock(),
		})
		return
	}
	m.publish(State{Status: StatusReady, Session: st.Session, Claims: res.claims, UpdatedAt: m.clock()})
}

// refreshToken forces a new ID token so backend calls never carry one close
// to expiry.
func (m *Manager) refreshToken(ctx context.Context) {
	if m.raw == nil || m.Snapshot().Session == nil {
		return
	}
	tok, err := m.raw.Token()
	if err != nil {
		m.logger.WarnContext(ctx, "id token refresh failed", "error", err)
		return
	}
	m.tokens = oauth2.ReuseTokenSource(tok, m.raw)
	m.logger.DebugContext(ctx, "id token refreshed", "expiry", tok.Expiry)
}

func (m *Manager) checkInactivity(ctx context.Context) {
	st := m.Snapshot()
	if st.Session == nil {
		return
	}
	idle := m.clock().Sub(time.Unix(0, m.lastActivity.Load()))
	if idle <= m.inactivityThreshold {
		return
	}
	m.logger.InfoContext(ctx, "signing out inactive session",
		"subject", st.Session.SubjectID.String(),
		"idle", idle.String(),
	)
	m.clear(ctx, inactivityMessage)
	m.signOutProvider(ctx)
}

func (m *Manager) clear(ctx context.Context, message string) {
	m.generation++
	m.raw = nil
	m.tokens = nil
	if err := m.resolver.Forget(ctx); err != nil {
		m.logger.WarnContext(ctx, "failed to invalidate claims cache", "error", err)
	}
	m.publish(signedOut(m.clock(), message))
}

// signOutProvider runs off the writer goroutine: the provider delivers the
// resulting sign-out event back to Run, which would otherwise block on itself.
func (m *Manager) signOutProvider(ctx context.Context) {
	if m.auth == nil {
		return
	}
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		if err := m.auth.SignOut(ctx); err != nil {
			m.logger.WarnContext(ctx, "identity provider sign-out failed", "error", err)
		}
	}()
}

func (m *Manager) publish(st State) {
	next := &snapshot{state: st, changed: make(chan struct{})}
	prev := m.current.Swap(next)
	close(prev.changed)
	if m.observer != nil {
		m.observer(st)
	}
}

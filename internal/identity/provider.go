package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"coursegate/internal/claims/models"
	jwttoken "coursegate/internal/jwt_token"
	id "coursegate/pkg/domain"
	dErrors "coursegate/pkg/domain-errors"
)

// DefaultTokenTTL matches the hour-long ID tokens of hosted identity providers.
const DefaultTokenTTL = time.Hour

// Provider is a development identity provider. It keeps one signed-in
// principal, mints HS256 ID tokens for it and fans auth events out to
// subscribers.
type Provider struct {
	tokens   *jwttoken.JWTService
	tokenTTL time.Duration
	clock    func() time.Time
	logger   *slog.Logger

	mu          sync.Mutex
	current     *jwttoken.Principal
	session     *models.Session
	subscribers map[int]chan AuthEvent
	nextSub     int
}

type Option func(*Provider)

func WithTokenTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewProvider(tokens *jwttoken.JWTService, opts ...Option) *Provider {
	p := &Provider{
		tokens:      tokens,
		tokenTTL:    DefaultTokenTTL,
		clock:       time.Now,
		logger:      slog.Default(),
		subscribers: make(map[int]chan AuthEvent),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Subscribe registers a listener for auth events. The returned cancel func
// unregisters it and closes the channel.
func (p *Provider) Subscribe(buffer int) (<-chan AuthEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan AuthEvent, buffer)

	p.mu.Lock()
	key := p.nextSub
	p.nextSub++
	p.subscribers[key] = ch
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subscribers, key)
			p.mu.Unlock()
			close(ch)
		})
	}
}

// SignIn makes principal the current user. Signing in while another subject
// is signed in signs that subject out first.
func (p *Provider) SignIn(ctx context.Context, principal jwttoken.Principal) (*models.Session, error) {
	if _, err := id.ParseSubjectID(principal.SubjectID.String()); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil && p.session.SubjectID != principal.SubjectID {
		p.publishLocked(ctx, AuthEvent{Kind: EventSignedOut, Session: p.session, At: p.clock()})
	}

	current := principal
	p.current = &current
	p.session = &models.Session{
		SubjectID:     principal.SubjectID,
		Email:         principal.Email,
		EmailVerified: principal.EmailVerified,
		Name:          principal.Name,
		SignedInAt:    p.clock(),
	}
	session := *p.session

	p.logger.InfoContext(ctx, "signed in", "subject", principal.SubjectID.String())
	p.publishLocked(ctx, AuthEvent{
		Kind:    EventSignedIn,
		Session: &session,
		Tokens:  p.tokenSourceLocked(principal),
		At:      session.SignedInAt,
	})
	return &session, nil
}

// SignOut clears the current user. It is a no-op when nobody is signed in.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	session := p.session
	p.session = nil
	p.current = nil

	p.logger.InfoContext(ctx, "signed out", "subject", session.SubjectID.String())
	p.publishLocked(ctx, AuthEvent{Kind: EventSignedOut, Session: session, At: p.clock()})
	return nil
}

// Current returns a copy of the signed-in session, or nil.
func (p *Provider) Current() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	s := *p.session
	return &s
}

// TokenSource returns a source of ID tokens for the current user. The
// source fails with unauthorized once that user has signed out.
func (p *Provider) TokenSource() (oauth2.TokenSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not signed in")
	}
	return p.tokenSourceLocked(*p.current), nil
}

func (p *Provider) tokenSourceLocked(principal jwttoken.Principal) oauth2.TokenSource {
	return &principalSource{provider: p, principal: principal}
}

// publishLocked delivers ev to every subscriber, waiting for buffer space
// until ctx is done.
func (p *Provider) publishLocked(ctx context.Context, ev AuthEvent) {
	for key, ch := range p.subscribers {
		select {
		case ch <- ev:
		case <-ctx.Done():
			p.logger.WarnContext(ctx, "auth event dropped",
				"subscriber", key,
				"kind", string(ev.Kind),
			)
		}
	}
}

func (p *Provider) signedInAs(subject id.SubjectID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.SubjectID == subject
}

// principalSource mints a new ID token on every call. Wrap it in
// oauth2.ReuseTokenSource to reuse tokens until they near expiry.
type principalSource struct {
	provider  *Provider
	principal jwttoken.Principal
}

func (s *principalSource) Token() (*oauth2.Token, error) {
	if !s.provider.signedInAs(s.principal.SubjectID) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session ended")
	}
	raw, expiry, err := s.provider.tokens.GenerateIDToken(s.principal, s.provider.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint id token")
	}
	tok := &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}
	return tok.WithExtra(map[string]any{"id_token": raw}), nil
}

// IDToken extracts the raw ID token from tok.
func IDToken(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	if raw, ok := tok.Extra("id_token").(string); ok && raw != "" {
		return raw
	}
	return tok.AccessToken
}

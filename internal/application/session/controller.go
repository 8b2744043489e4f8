package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"agora/internal/domain/auth"

	"github.com/rs/zerolog/log"
)

// ErrNotSynced is returned by operations that need an initialized session
var ErrNotSynced = errors.New("session not synced")

// AuthAPI is the part of the auth service the controller talks to
type AuthAPI interface {
	CreateAnonSession(ctx context.Context) (auth.TokenPair, error)
	GetClaims(ctx context.Context, accessToken string) (*auth.Claims, error)
	RefreshSession(ctx context.Context, tokens auth.TokenPair) (auth.TokenPair, error)
	CreateSession(ctx context.Context, req auth.LoginRequest) (auth.TokenPair, error)
}

// Controller owns the active session of one UI tree.
//
// Mutations hold opMu for their whole remote sequence, so no two remote calls for the
// session are ever in flight at once. The session value itself is guarded by stateMu and
// only replaced as a whole, readers never see new tokens with old claims.
type Controller struct {
	api   AuthAPI
	store auth.SessionStore

	opMu sync.Mutex

	stateMu sync.RWMutex
	session auth.Session
	synced  bool
	err     error
}

// New creates a controller. Init must run before the session can be used.
func New(api AuthAPI, store auth.SessionStore) *Controller {
	return &Controller{api: api, store: store}
}

// Init loads the persisted session, or creates an anonymous one, and syncs its claims
// with the auth service. It runs once; later calls return the first outcome.
func (c *Controller) Init(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stateMu.RLock()
	synced, prevErr := c.synced, c.err
	c.stateMu.RUnlock()
	if synced {
		return nil
	}
	if prevErr != nil {
		return prevErr
	}

	current, err := c.load(ctx)
	if err != nil {
		return c.fail(err)
	}

	next, err := c.sync(ctx, current)
	if err != nil {
		return c.fail(err)
	}

	c.publish(ctx, next)
	log.Debug().Bool("authenticated", next.IsAuthenticated()).Msg("session synced")
	return nil
}

// load reads the stored session. A missing or unreadable entry yields a new anonymous session.
func (c *Controller) load(ctx context.Context) (auth.Session, error) {
	stored, err := c.store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("discarding unreadable stored session")
		stored = nil
	}
	if stored != nil && stored.AccessToken != "" {
		// Stored claims are never trusted.
		return auth.Session{AccessToken: stored.AccessToken, RefreshToken: stored.RefreshToken}, nil
	}
	return c.newAnonSession(ctx)
}

// sync decodes the claims of current. An unauthorized token is refreshed, and a session
// that cannot be refreshed is replaced by a brand new anonymous one.
func (c *Controller) sync(ctx context.Context, current auth.Session) (auth.Session, error) {
	claims, err := c.api.GetClaims(ctx, current.AccessToken)
	if err == nil {
		current.Claims = claims
		return current, nil
	}
	if !auth.IsUnauthorized(err) {
		return auth.Session{}, fmt.Errorf("get claims: %w", err)
	}

	if current.RefreshToken != "" {
		refreshed, refreshErr := c.refresh(ctx, current)
		if refreshErr == nil {
			return refreshed, nil
		}
		log.Warn().Err(refreshErr).Msg("session refresh failed, switching to anonymous session")
	}

	anon, err := c.newAnonSession(ctx)
	if err != nil {
		return auth.Session{}, err
	}
	claims, err = c.api.GetClaims(ctx, anon.AccessToken)
	if err != nil {
		return auth.Session{}, fmt.Errorf("get anonymous claims: %w", err)
	}
	anon.Claims = claims
	return anon, nil
}

// refresh exchanges the tokens of current for new ones and decodes the new claims
func (c *Controller) refresh(ctx context.Context, current auth.Session) (auth.Session, error) {
	tokens, err := c.api.RefreshSession(ctx, current.Tokens())
	if err != nil {
		return auth.Session{}, fmt.Errorf("refresh session: %w", err)
	}
	next := auth.Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	claims, err := c.api.GetClaims(ctx, next.AccessToken)
	if err != nil {
		return auth.Session{}, fmt.Errorf("get refreshed claims: %w", err)
	}
	next.Claims = claims
	return next, nil
}

func (c *Controller) newAnonSession(ctx context.Context) (auth.Session, error) {
	tokens, err := c.api.CreateAnonSession(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("create anonymous session: %w", err)
	}
	return auth.Session{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

// ResetSession discards the current tokens for a new anonymous session. It also recovers a
// controller whose Init failed.
func (c *Controller) ResetSession(ctx context.Context) (auth.TokenPair, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	anon, err := c.newAnonSession(ctx)
	if err != nil {
		return auth.TokenPair{}, err
	}
	claims, err := c.api.GetClaims(ctx, anon.AccessToken)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("get claims: %w", err)
	}
	anon.Claims = claims

	c.publish(ctx, anon)
	return anon.Tokens(), nil
}

// RefreshClaims decodes the claims of the current access token again. Tokens are left untouched.
func (c *Controller) RefreshClaims(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	current, err := c.current()
	if err != nil {
		return err
	}
	claims, err := c.api.GetClaims(ctx, current.AccessToken)
	if err != nil {
		return fmt.Errorf("get claims: %w", err)
	}
	current.Claims = claims

	c.publish(ctx, current)
	return nil
}

// Authenticate exchanges credentials for a new token pair and switches the session to it
func (c *Controller) Authenticate(ctx context.Context, req auth.LoginRequest) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if _, err := c.current(); err != nil {
		return err
	}
	tokens, err := c.api.CreateSession(ctx, req)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return c.adopt(ctx, tokens)
}

// Adopt switches the session to tokens obtained outside the controller, such as the pair
// returned when a registration completes.
func (c *Controller) Adopt(ctx context.Context, tokens auth.TokenPair) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if _, err := c.current(); err != nil {
		return err
	}
	return c.adopt(ctx, tokens)
}

func (c *Controller) adopt(ctx context.Context, tokens auth.TokenPair) error {
	claims, err := c.api.GetClaims(ctx, tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("get claims: %w", err)
	}
	c.publish(ctx, auth.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Claims:       claims,
	})
	return nil
}

// refreshFrom refreshes the session after a call made with failedToken was rejected.
// When another operation already replaced that token, the current one is returned as is.
func (c *Controller) refreshFrom(ctx context.Context, failedToken string) (string, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	current, err := c.current()
	if err != nil {
		return "", err
	}
	if current.AccessToken != failedToken {
		return current.AccessToken, nil
	}
	if current.RefreshToken == "" {
		return "", fmt.Errorf("refresh session: %w", auth.ErrUnauthorized)
	}
	next, err := c.refresh(ctx, current)
	if err != nil {
		return "", err
	}
	c.publish(ctx, next)
	return next.AccessToken, nil
}

// current returns a copy of the synced session
func (c *Controller) current() (auth.Session, error) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if !c.synced {
		return auth.Session{}, ErrNotSynced
	}
	return c.session.Clone(), nil
}

// publish replaces the session in one step and persists it. Persistence failures are
// logged, the in-memory session stays authoritative.
func (c *Controller) publish(ctx context.Context, next auth.Session) {
	c.stateMu.Lock()
	c.session = next.Clone()
	c.synced = true
	c.err = nil
	c.stateMu.Unlock()

	if err := c.store.Save(ctx, next); err != nil {
		log.Error().Err(err).Msg("failed to persist session")
	}
}

func (c *Controller) fail(err error) error {
	c.stateMu.Lock()
	c.err = err
	c.stateMu.Unlock()
	log.Error().Err(err).Msg("session initialization failed")
	return err
}

// Close tears the controller down when its owner goes away. It waits for the running
// operation, then forgets the in-memory session. The stored session is kept, so a later
// Init picks it up again.
func (c *Controller) Close() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.stateMu.Lock()
	c.session = auth.Session{}
	c.synced = false
	c.err = nil
	c.stateMu.Unlock()
}

// Session returns a copy of the active session
func (c *Controller) Session() auth.Session {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.session.Clone()
}

// AccessToken returns the active access token
func (c *Controller) AccessToken() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.session.AccessToken
}

// Claims returns the decoded claims, nil until the session is synced
func (c *Controller) Claims() *auth.Claims {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.session.Claims.Clone()
}

// Synced reports whether Init (or a later reset) completed
func (c *Controller) Synced() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.synced
}

// Err returns the fatal initialization error, if any
func (c *Controller) Err() error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.err
}

// Authenticated reports whether the active session belongs to an identified user
func (c *Controller) Authenticated() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.session.IsAuthenticated()
}

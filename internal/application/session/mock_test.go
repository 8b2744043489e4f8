package session

import (
	"context"
	"fmt"
	"sync"

	"agora/internal/domain/auth"
)

// mockAuthAPI implements AuthAPI with scripted answers and records every call
type mockAuthAPI struct {
	mu    sync.Mutex
	calls []string

	anon       []anonResult
	claims     map[string][]claimsResult // accessToken -> queued results
	lastClaims map[string]claimsResult   // accessToken -> last served result, repeated once the queue is empty
	refresh    []anonResult
	login      []anonResult
}

type anonResult struct {
	tokens auth.TokenPair
	err    error
}

type claimsResult struct {
	claims *auth.Claims
	err    error
}

func newMockAuthAPI() *mockAuthAPI {
	return &mockAuthAPI{
		claims:     make(map[string][]claimsResult),
		lastClaims: make(map[string]claimsResult),
	}
}

func (m *mockAuthAPI) onAnon(tokens auth.TokenPair, err error) *mockAuthAPI {
	m.anon = append(m.anon, anonResult{tokens, err})
	return m
}

func (m *mockAuthAPI) onClaims(token string, claims *auth.Claims, err error) *mockAuthAPI {
	m.claims[token] = append(m.claims[token], claimsResult{claims, err})
	return m
}

func (m *mockAuthAPI) onRefresh(tokens auth.TokenPair, err error) *mockAuthAPI {
	m.refresh = append(m.refresh, anonResult{tokens, err})
	return m
}

func (m *mockAuthAPI) onLogin(tokens auth.TokenPair, err error) *mockAuthAPI {
	m.login = append(m.login, anonResult{tokens, err})
	return m
}

func (m *mockAuthAPI) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockAuthAPI) count(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func pop(queue *[]anonResult, name string) (auth.TokenPair, error) {
	if len(*queue) == 0 {
		return auth.TokenPair{}, fmt.Errorf("unexpected %s call", name)
	}
	res := (*queue)[0]
	*queue = (*queue)[1:]
	return res.tokens, res.err
}

func (m *mockAuthAPI) CreateAnonSession(ctx context.Context) (auth.TokenPair, error) {
	m.record("anon")
	m.mu.Lock()
	defer m.mu.Unlock()
	return pop(&m.anon, "anon")
}

func (m *mockAuthAPI) GetClaims(ctx context.Context, accessToken string) (*auth.Claims, error) {
	m.record("claims:" + accessToken)
	m.mu.Lock()
	defer m.mu.Unlock()
	var res claimsResult
	if queue := m.claims[accessToken]; len(queue) > 0 {
		res = queue[0]
		m.claims[accessToken] = queue[1:]
		m.lastClaims[accessToken] = res
	} else if last, ok := m.lastClaims[accessToken]; ok {
		res = last
	} else {
		return nil, fmt.Errorf("unexpected claims call for %q", accessToken)
	}
	return res.claims.Clone(), res.err
}

func (m *mockAuthAPI) RefreshSession(ctx context.Context, tokens auth.TokenPair) (auth.TokenPair, error) {
	m.record("refresh:" + tokens.AccessToken + ":" + tokens.RefreshToken)
	m.mu.Lock()
	defer m.mu.Unlock()
	return pop(&m.refresh, "refresh")
}

func (m *mockAuthAPI) CreateSession(ctx context.Context, req auth.LoginRequest) (auth.TokenPair, error) {
	m.record("login:" + req.Email)
	m.mu.Lock()
	defer m.mu.Unlock()
	return pop(&m.login, "login")
}

// mockStore implements auth.SessionStore in memory
type mockStore struct {
	mu      sync.Mutex
	stored  *auth.Session
	loadErr error
	saveErr error
	saves   int
}

func (s *mockStore) Load(ctx context.Context) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.stored == nil {
		return nil, nil
	}
	out := s.stored.Clone()
	return &out, nil
}

func (s *mockStore) Save(ctx context.Context, session auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	out := session.Clone()
	s.stored = &out
	return nil
}

var (
	anonClaims  = &auth.Claims{UserID: "", Roles: []auth.Role{auth.RoleAnon}}
	userClaims  = &auth.Claims{UserID: "u1", Roles: []auth.Role{auth.RoleUser}, RefreshTokenID: "rt1"}
	adminClaims = &auth.Claims{UserID: "u1", Roles: []auth.Role{auth.RoleAdmin}, RefreshTokenID: "rt1"}
)

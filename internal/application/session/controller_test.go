package session

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"agora/internal/domain/auth"
)

var (
	errUnauthorized = &auth.HTTPError{Status: http.StatusUnauthorized, Message: "token expired"}
	errForbidden    = &auth.HTTPError{Status: http.StatusForbidden, Message: "refresh rejected"}
)

func assertSession(t *testing.T, c *Controller, access, refresh string, claims *auth.Claims) {
	t.Helper()
	s := c.Session()
	if s.AccessToken != access {
		t.Errorf("Expected access token %q, got %q", access, s.AccessToken)
	}
	if s.RefreshToken != refresh {
		t.Errorf("Expected refresh token %q, got %q", refresh, s.RefreshToken)
	}
	if !reflect.DeepEqual(s.Claims, claims) {
		t.Errorf("Expected claims %+v, got %+v", claims, s.Claims)
	}
}

func TestController_Init_LoadsFromStorage(t *testing.T) {
	api := newMockAuthAPI().onClaims("A", adminClaims, nil)
	// Stored claims are stale and must be replaced.
	store := &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R", Claims: userClaims}}
	c := New(api, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	assertSession(t, c, "A", "R", adminClaims)
	if !c.Synced() {
		t.Error("Expected controller to be synced")
	}
	if got := api.calls; !reflect.DeepEqual(got, []string{"claims:A"}) {
		t.Errorf("Unexpected calls: %v", got)
	}
	if !reflect.DeepEqual(store.stored.Claims, adminClaims) {
		t.Errorf("Expected persisted claims to be refreshed, got %+v", store.stored.Claims)
	}
}

func TestController_Init_CreatesAnonymousSession(t *testing.T) {
	api := newMockAuthAPI().
		onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
		onClaims("anon1", anonClaims, nil)
	store := &mockStore{}
	c := New(api, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	assertSession(t, c, "anon1", "rr1", anonClaims)
	if got := api.calls; !reflect.DeepEqual(got, []string{"anon", "claims:anon1"}) {
		t.Errorf("Expected anon then claims, got %v", got)
	}
	if c.Authenticated() {
		t.Error("Expected anonymous session to be unauthenticated")
	}
	if c.Guard(auth.RoleAdmin) != GuardForbidden {
		t.Errorf("Expected admin guard to be forbidden, got %s", c.Guard(auth.RoleAdmin))
	}
	if c.Guard() != GuardContent {
		t.Errorf("Expected unrestricted guard to show content, got %s", c.Guard())
	}
}

func TestController_Init_RefreshesExpiredToken(t *testing.T) {
	api := newMockAuthAPI().
		onClaims("A", nil, errUnauthorized).
		onRefresh(auth.TokenPair{AccessToken: "A2", RefreshToken: "R"}, nil).
		onClaims("A2", &auth.Claims{UserID: "u1", Roles: []auth.Role{auth.RoleUser}}, nil)
	store := &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}}
	c := New(api, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	assertSession(t, c, "A2", "R", &auth.Claims{UserID: "u1", Roles: []auth.Role{auth.RoleUser}})
	want := []string{"claims:A", "refresh:A:R", "claims:A2"}
	if !reflect.DeepEqual(api.calls, want) {
		t.Errorf("Expected calls %v, got %v", want, api.calls)
	}
	if store.stored.AccessToken != "A2" {
		t.Errorf("Expected refreshed token to be persisted, got %q", store.stored.AccessToken)
	}
}

func TestController_Init_KeepsRefreshTokenWhenOmitted(t *testing.T) {
	api := newMockAuthAPI().
		onClaims("A", nil, errUnauthorized).
		onRefresh(auth.TokenPair{AccessToken: "A2"}, nil).
		onClaims("A2", userClaims, nil)
	c := New(api, &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}})

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	assertSession(t, c, "A2", "R", userClaims)
}

func TestController_Init_ResetsInvalidSession(t *testing.T) {
	api := newMockAuthAPI().
		onClaims("A", nil, errUnauthorized).
		onRefresh(auth.TokenPair{}, errForbidden).
		onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
		onClaims("anon1", anonClaims, nil)
	store := &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}}
	c := New(api, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	assertSession(t, c, "anon1", "rr1", anonClaims)
	want := []string{"claims:A", "refresh:A:R", "anon", "claims:anon1"}
	if !reflect.DeepEqual(api.calls, want) {
		t.Errorf("Expected calls %v, got %v", want, api.calls)
	}
	if store.stored.AccessToken != "anon1" || store.stored.RefreshToken != "rr1" {
		t.Errorf("Expected old tokens to be discarded from storage, got %+v", store.stored)
	}
}

func TestController_Init_UnauthorizedWithoutRefreshToken(t *testing.T) {
	api := newMockAuthAPI().
		onClaims("A", nil, errUnauthorized).
		onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
		onClaims("anon1", anonClaims, nil)
	c := New(api, &mockStore{stored: &auth.Session{AccessToken: "A"}})

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	assertSession(t, c, "anon1", "rr1", anonClaims)
	if api.count("refresh") != 0 {
		t.Error("Expected no refresh call without a refresh token")
	}
}

func TestController_Init_UnreadableStorage(t *testing.T) {
	api := newMockAuthAPI().
		onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
		onClaims("anon1", anonClaims, nil)
	c := New(api, &mockStore{loadErr: errors.New("invalid character")})

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	assertSession(t, c, "anon1", "rr1", anonClaims)
}

func TestController_Init_FatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		api   *mockAuthAPI
		store *mockStore
	}{
		{
			name:  "anonymous session fails",
			api:   newMockAuthAPI().onAnon(auth.TokenPair{}, errors.New("ouh la la")),
			store: &mockStore{},
		},
		{
			name:  "claims fail with server error",
			api:   newMockAuthAPI().onClaims("A", nil, &auth.HTTPError{Status: http.StatusInternalServerError}),
			store: &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}},
		},
		{
			name: "fallback anonymous session fails",
			api: newMockAuthAPI().
				onClaims("A", nil, errUnauthorized).
				onRefresh(auth.TokenPair{}, errForbidden).
				onAnon(auth.TokenPair{}, errors.New("network down")),
			store: &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}},
		},
		{
			name: "fallback claims unauthorized",
			api: newMockAuthAPI().
				onClaims("A", nil, errUnauthorized).
				onRefresh(auth.TokenPair{}, errForbidden).
				onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
				onClaims("anon1", nil, errUnauthorized),
			store: &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.store.stored
			c := New(tt.api, tt.store)

			err := c.Init(context.Background())
			if err == nil {
				t.Fatal("Expected Init to fail")
			}
			if c.Synced() {
				t.Error("Expected controller not to be synced")
			}
			if c.Err() == nil {
				t.Error("Expected Err to report the failure")
			}
			if c.AccessToken() != "" {
				t.Errorf("Expected no partial session, got token %q", c.AccessToken())
			}
			if tt.store.stored != before {
				t.Error("Expected storage to be left untouched")
			}
			if c.Guard() != GuardLoading {
				t.Errorf("Expected guard to stay loading, got %s", c.Guard())
			}
			if err := c.RefreshClaims(context.Background()); !errors.Is(err, ErrNotSynced) {
				t.Errorf("Expected ErrNotSynced, got %v", err)
			}
		})
	}
}

func TestController_Init_RunsOnce(t *testing.T) {
	api := newMockAuthAPI().onClaims("A", userClaims, nil)
	c := New(api, &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}})

	for i := 0; i < 3; i++ {
		if err := c.Init(context.Background()); err != nil {
			t.Fatalf("Init failed: %v", err)
		}
	}
	if api.count("claims") != 1 {
		t.Errorf("Expected a single claims call, got %d", api.count("claims"))
	}
}

func initUser(t *testing.T) (*Controller, *mockAuthAPI, *mockStore) {
	t.Helper()
	api := newMockAuthAPI().onClaims("A", userClaims, nil)
	store := &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}}
	c := New(api, store)
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return c, api, store
}

func TestController_ResetSession(t *testing.T) {
	c, api, store := initUser(t)
	api.onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
		onClaims("anon1", anonClaims, nil)

	tokens, err := c.ResetSession(context.Background())
	if err != nil {
		t.Fatalf("ResetSession failed: %v", err)
	}
	if tokens.AccessToken != "anon1" || tokens.RefreshToken != "rr1" {
		t.Errorf("Unexpected tokens: %+v", tokens)
	}
	assertSession(t, c, "anon1", "rr1", anonClaims)
	if store.stored.AccessToken != "anon1" {
		t.Errorf("Expected reset session to be persisted, got %+v", store.stored)
	}
}

func TestController_ResetSession_KeepsSessionOnError(t *testing.T) {
	c, api, _ := initUser(t)
	api.onAnon(auth.TokenPair{}, errors.New("network down"))

	if _, err := c.ResetSession(context.Background()); err == nil {
		t.Fatal("Expected ResetSession to fail")
	}
	assertSession(t, c, "A", "R", userClaims)
}

func TestController_ResetSession_RecoversFailedInit(t *testing.T) {
	api := newMockAuthAPI().onAnon(auth.TokenPair{}, errors.New("ouh la la"))
	c := New(api, &mockStore{})
	if err := c.Init(context.Background()); err == nil {
		t.Fatal("Expected Init to fail")
	}

	api.onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
		onClaims("anon1", anonClaims, nil)
	if _, err := c.ResetSession(context.Background()); err != nil {
		t.Fatalf("ResetSession failed: %v", err)
	}
	if !c.Synced() || c.Err() != nil {
		t.Errorf("Expected controller to recover, synced=%v err=%v", c.Synced(), c.Err())
	}
}

func TestController_RefreshClaims(t *testing.T) {
	c, api, _ := initUser(t)
	api.onClaims("A", adminClaims, nil)

	if err := c.RefreshClaims(context.Background()); err != nil {
		t.Fatalf("RefreshClaims failed: %v", err)
	}
	assertSession(t, c, "A", "R", adminClaims)

	if err := c.RefreshClaims(context.Background()); err != nil {
		t.Fatalf("RefreshClaims failed: %v", err)
	}
	assertSession(t, c, "A", "R", adminClaims)
}

func TestController_Authenticate(t *testing.T) {
	c, api, store := initUser(t)
	api.onLogin(auth.TokenPair{AccessToken: "B", RefreshToken: "RB"}, nil).
		onClaims("B", adminClaims, nil)

	err := c.Authenticate(context.Background(), auth.LoginRequest{Email: "admin@email.com", Password: "password"})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	assertSession(t, c, "B", "RB", adminClaims)
	if store.stored.AccessToken != "B" || !reflect.DeepEqual(store.stored.Claims, adminClaims) {
		t.Errorf("Expected new session to be persisted, got %+v", store.stored)
	}
}

func TestController_Authenticate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"email not found", http.StatusNotFound, auth.IsNotFound},
		{"wrong password", http.StatusForbidden, auth.IsForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api, _ := initUser(t)
			api.onLogin(auth.TokenPair{}, &auth.HTTPError{Status: tt.status})

			err := c.Authenticate(context.Background(), auth.LoginRequest{Email: "a@b.c", Password: "x"})
			if !tt.check(err) {
				t.Errorf("Unexpected error classification: %v", err)
			}
			assertSession(t, c, "A", "R", userClaims)
		})
	}
}

func TestController_Authenticate_IsAtomic(t *testing.T) {
	c, api, _ := initUser(t)
	api.onLogin(auth.TokenPair{AccessToken: "B", RefreshToken: "RB"}, nil).
		onClaims("B", adminClaims, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := c.Session()
			switch s.AccessToken {
			case "A":
				if !reflect.DeepEqual(s.Claims, userClaims) {
					t.Errorf("Old token paired with claims %+v", s.Claims)
					return
				}
			case "B":
				if !reflect.DeepEqual(s.Claims, adminClaims) {
					t.Errorf("New token paired with claims %+v", s.Claims)
					return
				}
			}
		}
	}()

	if err := c.Authenticate(context.Background(), auth.LoginRequest{Email: "admin@email.com", Password: "password"}); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}
	close(stop)
	wg.Wait()
}

func TestController_PersistFailureKeepsSession(t *testing.T) {
	api := newMockAuthAPI().
		onAnon(auth.TokenPair{AccessToken: "anon1", RefreshToken: "rr1"}, nil).
		onClaims("anon1", anonClaims, nil)
	c := New(api, &mockStore{saveErr: errors.New("disk full")})

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	assertSession(t, c, "anon1", "rr1", anonClaims)
}

func TestController_Adopt(t *testing.T) {
	c, api, _ := initUser(t)
	api.onClaims("N", userClaims, nil)

	if err := c.Adopt(context.Background(), auth.TokenPair{AccessToken: "N", RefreshToken: "RN"}); err != nil {
		t.Fatalf("Adopt failed: %v", err)
	}
	assertSession(t, c, "N", "RN", userClaims)
}

func TestController_Close(t *testing.T) {
	api := newMockAuthAPI().onClaims("A", userClaims, nil)
	store := &mockStore{stored: &auth.Session{AccessToken: "A", RefreshToken: "R"}}
	c := New(api, store)

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	c.Close()

	if c.Synced() || c.Claims() != nil || c.AccessToken() != "" {
		t.Error("Expected closed controller to drop its session")
	}
	if err := c.RefreshClaims(context.Background()); !errors.Is(err, ErrNotSynced) {
		t.Errorf("Expected ErrNotSynced after Close, got %v", err)
	}
	if store.stored == nil || store.stored.AccessToken != "A" {
		t.Error("Expected stored session to survive Close")
	}

	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init after Close failed: %v", err)
	}
	assertSession(t, c, "A", "R", userClaims)
}

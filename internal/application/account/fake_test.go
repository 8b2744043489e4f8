package account

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"agora/internal/domain/auth"
)

var userClaims = &auth.Claims{UserID: "u1", Roles: []auth.Role{auth.RoleUser}, RefreshTokenID: "rt-u1"}

// fakeAPI plays both the session endpoints and the account endpoints
type fakeAPI struct {
	mu sync.Mutex

	claims  map[string]*auth.Claims // Valid access tokens
	issued  int
	calls   []string
	errs    map[string]error // Error returned by method name
	expired map[string]bool  // Methods rejecting their first call as unauthorized

	lastRegister auth.RegisterRequest
	lastReset    auth.ResetPasswordRequest
	lastUpdate   auth.UpdatePasswordRequest
	lastShort    auth.ShortCodeRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		claims:  map[string]*auth.Claims{},
		errs:    map[string]error{},
		expired: map[string]bool{},
	}
}

func status(code int) error {
	return &auth.HTTPError{Status: code}
}

func (f *fakeAPI) issue(prefix string, claims *auth.Claims) auth.TokenPair {
	f.issued++
	access := fmt.Sprintf("%s-%d", prefix, f.issued)
	f.claims[access] = claims.Clone()
	return auth.TokenPair{AccessToken: access, RefreshToken: "refresh-" + access}
}

func (f *fakeAPI) record(method, token string) error {
	f.calls = append(f.calls, method+":"+token)
	if f.expired[method] {
		delete(f.expired, method)
		delete(f.claims, token)
		return status(http.StatusUnauthorized)
	}
	if _, ok := f.claims[token]; !ok {
		return status(http.StatusUnauthorized)
	}
	return f.errs[method]
}

func (f *fakeAPI) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if len(call) > len(method) && call[:len(method)+1] == method+":" {
			n++
		}
	}
	return n
}

func (f *fakeAPI) CreateAnonSession(_ context.Context) (auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issue("anon", &auth.Claims{Roles: []auth.Role{auth.RoleAnon}}), nil
}

func (f *fakeAPI) GetClaims(_ context.Context, accessToken string) (*auth.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.claims[accessToken]
	if !ok {
		return nil, status(http.StatusUnauthorized)
	}
	return claims.Clone(), nil
}

func (f *fakeAPI) RefreshSession(_ context.Context, tokens auth.TokenPair) (auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "refresh:"+tokens.AccessToken)
	if err := f.errs["refresh"]; err != nil {
		return auth.TokenPair{}, err
	}
	next := f.issue("refreshed", userClaims)
	return auth.TokenPair{AccessToken: next.AccessToken}, nil
}

func (f *fakeAPI) CreateSession(_ context.Context, req auth.LoginRequest) (auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "login:"+req.Email)
	if err := f.errs["login"]; err != nil {
		return auth.TokenPair{}, err
	}
	return f.issue("user", userClaims), nil
}

func (f *fakeAPI) CredentialsExist(_ context.Context, accessToken, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("exists", accessToken); err != nil {
		return false, err
	}
	return email == "taken@agora.dev", nil
}

func (f *fakeAPI) GetCredentials(_ context.Context, accessToken, userID string) (*auth.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("credentials", accessToken); err != nil {
		return nil, err
	}
	return &auth.Credentials{ID: userID, Email: "user@agora.dev", Role: auth.RoleUser}, nil
}

func (f *fakeAPI) RequestRegistration(_ context.Context, accessToken string, req auth.ShortCodeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastShort = req
	return f.record("register", accessToken)
}

func (f *fakeAPI) CompleteRegistration(_ context.Context, accessToken string, req auth.RegisterRequest) (auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastRegister = req
	if err := f.record("complete-registration", accessToken); err != nil {
		return auth.TokenPair{}, err
	}
	return f.issue("registered", userClaims), nil
}

func (f *fakeAPI) RequestPasswordReset(_ context.Context, accessToken string, req auth.ShortCodeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastShort = req
	return f.record("reset-request", accessToken)
}

func (f *fakeAPI) ResetPassword(_ context.Context, accessToken string, req auth.ResetPasswordRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReset = req
	return f.record("reset", accessToken)
}

func (f *fakeAPI) UpdatePassword(_ context.Context, accessToken string, req auth.UpdatePasswordRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = req
	return f.record("update-password", accessToken)
}

func (f *fakeAPI) RequestEmailUpdate(_ context.Context, accessToken string, req auth.ShortCodeRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastShort = req
	return f.record("email-request", accessToken)
}

func (f *fakeAPI) UpdateEmail(_ context.Context, accessToken string, _ auth.UpdateEmailRequest) (auth.UpdateEmailResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update-email", accessToken); err != nil {
		return auth.UpdateEmailResponse{}, err
	}
	return auth.UpdateEmailResponse{Email: "new@agora.dev"}, nil
}

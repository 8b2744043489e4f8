package account

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"agora/internal/adapters/store"
	"agora/internal/application/forms"
	"agora/internal/application/session"
	"agora/internal/domain/auth"
)

func setupService(t *testing.T) (*Service, *session.Controller, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	ctrl := session.New(api, store.NewMemoryStore())
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return NewService(ctrl, api), ctrl, api
}

func login(t *testing.T, svc *Service) {
	t.Helper()
	if res := svc.Login(context.Background(), forms.Login{Email: "user@agora.dev", Password: "secret"}); !res.OK() {
		t.Fatalf("Login failed: %+v", res)
	}
}

func TestService_Login(t *testing.T) {
	svc, ctrl, _ := setupService(t)
	login(t, svc)

	if !ctrl.Authenticated() {
		t.Error("Expected authenticated session")
	}
	if ctrl.Claims().UserID != "u1" {
		t.Errorf("Expected user u1, got %q", ctrl.Claims().UserID)
	}
}

func TestService_Login_Invalid(t *testing.T) {
	svc, _, api := setupService(t)

	res := svc.Login(context.Background(), forms.Login{Email: "nope", Password: "secret"})
	if res.Fields["email"] != forms.MsgInvalidEmail {
		t.Errorf("Expected email error, got %+v", res)
	}
	if api.count("login") != 0 {
		t.Error("Expected invalid form not to reach the API")
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	svc, ctrl, api := setupService(t)
	api.errs["login"] = status(http.StatusForbidden)
	before := ctrl.Session()

	res := svc.Login(context.Background(), forms.Login{Email: "user@agora.dev", Password: "wrong"})
	if res.Fields["password"] != forms.MsgWrongPassword {
		t.Errorf("Expected password error, got %+v", res)
	}
	if ctrl.AccessToken() != before.AccessToken {
		t.Error("Expected session to be kept on failure")
	}
}

func TestService_Logout(t *testing.T) {
	svc, ctrl, _ := setupService(t)
	login(t, svc)

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if ctrl.Authenticated() {
		t.Error("Expected anonymous session after logout")
	}
	if !strings.HasPrefix(ctrl.AccessToken(), "anon-") {
		t.Errorf("Expected anonymous token, got %q", ctrl.AccessToken())
	}
}

func TestService_RequestRegistration(t *testing.T) {
	svc, _, api := setupService(t)

	if res := svc.RequestRegistration(context.Background(), forms.EmailRequest{Email: "new@agora.dev"}); !res.OK() {
		t.Fatalf("Expected success, got %+v", res)
	}
	if api.lastShort.Lang != auth.LangEn {
		t.Errorf("Expected default lang en, got %q", api.lastShort.Lang)
	}

	api.errs["register"] = status(http.StatusConflict)
	res := svc.RequestRegistration(context.Background(), forms.EmailRequest{Email: "taken@agora.dev", Lang: auth.LangFr})
	if res.Fields["email"] != forms.MsgEmailTaken {
		t.Errorf("Expected email taken, got %+v", res)
	}
}

func TestService_RetriesExpiredToken(t *testing.T) {
	svc, ctrl, api := setupService(t)
	first := ctrl.AccessToken()
	api.expired["register"] = true

	if res := svc.RequestRegistration(context.Background(), forms.EmailRequest{Email: "new@agora.dev"}); !res.OK() {
		t.Fatalf("Expected success after refresh, got %+v", res)
	}
	if api.count("register") != 2 || api.count("refresh") != 1 {
		t.Errorf("Expected 2 attempts and 1 refresh, got calls %v", api.calls)
	}
	if ctrl.AccessToken() == first {
		t.Error("Expected refreshed access token")
	}
}

func TestService_CompleteRegistration(t *testing.T) {
	svc, ctrl, api := setupService(t)
	fragment := auth.EncodeEmailFragment("new@agora.dev")

	res := svc.CompleteRegistration(context.Background(), fragment, "CODE1234",
		forms.NewPassword{Password: "secret", PasswordConfirmation: "secret"})
	if !res.OK() {
		t.Fatalf("Expected success, got %+v", res)
	}
	if api.lastRegister.Email != "new@agora.dev" || api.lastRegister.ShortCode != "CODE1234" {
		t.Errorf("Unexpected register request %+v", api.lastRegister)
	}
	if !strings.HasPrefix(ctrl.AccessToken(), "registered-") || !ctrl.Authenticated() {
		t.Errorf("Expected registered session to be adopted, got %q", ctrl.AccessToken())
	}
}

func TestService_CompleteRegistration_Errors(t *testing.T) {
	svc, _, api := setupService(t)
	valid := forms.NewPassword{Password: "secret", PasswordConfirmation: "secret"}
	fragment := auth.EncodeEmailFragment("new@agora.dev")

	if res := svc.CompleteRegistration(context.Background(), "!!", "CODE", valid); !res.LinkError {
		t.Errorf("Expected link error for broken fragment, got %+v", res)
	}
	if res := svc.CompleteRegistration(context.Background(), fragment, "", valid); !res.LinkError {
		t.Errorf("Expected link error for missing code, got %+v", res)
	}

	mismatch := forms.NewPassword{Password: "secret", PasswordConfirmation: "other"}
	if res := svc.CompleteRegistration(context.Background(), fragment, "CODE", mismatch); res.Fields["passwordConfirmation"] != forms.MsgPasswordMismatch {
		t.Errorf("Expected mismatch, got %+v", res)
	}

	api.errs["complete-registration"] = status(http.StatusForbidden)
	if res := svc.CompleteRegistration(context.Background(), fragment, "CODE", valid); !res.LinkError {
		t.Errorf("Expected link error for rejected code, got %+v", res)
	}
}

func TestService_CompletePasswordReset(t *testing.T) {
	svc, _, api := setupService(t)
	valid := forms.NewPassword{Password: "secret", PasswordConfirmation: "secret"}

	if res := svc.CompletePasswordReset(context.Background(), "u1", "CODE", valid); !res.OK() {
		t.Fatalf("Expected success, got %+v", res)
	}
	if api.lastReset.UserID != "u1" || api.lastReset.Password != "secret" {
		t.Errorf("Unexpected reset request %+v", api.lastReset)
	}

	api.errs["reset"] = status(http.StatusInternalServerError)
	if res := svc.CompletePasswordReset(context.Background(), "u1", "CODE", valid); res.Form != forms.MsgPasswordReset {
		t.Errorf("Expected generic error, got %+v", res)
	}
	if res := svc.CompletePasswordReset(context.Background(), "", "CODE", valid); !res.LinkError {
		t.Errorf("Expected link error, got %+v", res)
	}
}

func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	svc, _, api := setupService(t)
	api.errs["reset-request"] = status(http.StatusNotFound)

	res := svc.RequestPasswordReset(context.Background(), forms.EmailRequest{Email: "ghost@agora.dev"})
	if res.Fields["email"] != forms.MsgEmailNotFound {
		t.Errorf("Expected email not found, got %+v", res)
	}
}

func TestService_UpdatePassword(t *testing.T) {
	svc, _, api := setupService(t)
	form := forms.UpdatePassword{CurrentPassword: "secret", Password: "secret2", PasswordConfirmation: "secret2"}

	if res := svc.UpdatePassword(context.Background(), form); res.Form != forms.MsgSessionForbidden {
		t.Errorf("Expected anonymous session to be rejected, got %+v", res)
	}
	if api.count("update-password") != 0 {
		t.Error("Expected no API call for anonymous session")
	}

	login(t, svc)
	if res := svc.UpdatePassword(context.Background(), form); !res.OK() {
		t.Fatalf("Expected success, got %+v", res)
	}
	if api.lastUpdate.CurrentPassword != "secret" || api.lastUpdate.Password != "secret2" {
		t.Errorf("Unexpected update request %+v", api.lastUpdate)
	}

	api.errs["update-password"] = status(http.StatusForbidden)
	if res := svc.UpdatePassword(context.Background(), form); res.Fields["currentPassword"] != forms.MsgWrongPassword {
		t.Errorf("Expected wrong password, got %+v", res)
	}
}

func TestService_EmailUpdate(t *testing.T) {
	svc, _, api := setupService(t)
	login(t, svc)

	if res := svc.RequestEmailUpdate(context.Background(), forms.EmailRequest{Email: "new@agora.dev"}); !res.OK() {
		t.Fatalf("Expected success, got %+v", res)
	}

	email, res := svc.ValidateEmail(context.Background(), "u1", "CODE")
	if !res.OK() || email != "new@agora.dev" {
		t.Errorf("Expected new email, got %q %+v", email, res)
	}

	api.errs["update-email"] = status(http.StatusForbidden)
	if _, res := svc.ValidateEmail(context.Background(), "u1", "CODE"); !res.LinkError {
		t.Errorf("Expected link error, got %+v", res)
	}
}

func TestService_CurrentUser(t *testing.T) {
	svc, _, _ := setupService(t)

	if _, err := svc.CurrentUser(context.Background()); !auth.IsForbidden(err) {
		t.Errorf("Expected forbidden for anonymous session, got %v", err)
	}

	login(t, svc)
	user, err := svc.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("Expected user u1, got %q", user.ID)
	}
}

func TestService_EmailExists(t *testing.T) {
	svc, _, _ := setupService(t)

	exists, err := svc.EmailExists(context.Background(), "taken@agora.dev")
	if err != nil || !exists {
		t.Errorf("Expected existing email, got %v %v", exists, err)
	}
	exists, err = svc.EmailExists(context.Background(), "free@agora.dev")
	if err != nil || exists {
		t.Errorf("Expected free email, got %v %v", exists, err)
	}
}

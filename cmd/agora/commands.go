package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/pflag"

	"agora/internal/adapters/authapi"
	"agora/internal/application/account"
	"agora/internal/application/forms"
	"agora/internal/application/session"
	"agora/internal/domain/auth"
)

// env is what every command runs against
type env struct {
	ctx     context.Context
	client  *authapi.Client
	session *session.Controller
	account *account.Service
}

type command struct {
	summary       string
	allowUnsynced bool // run even when the session failed to initialize
	run           func(e *env, args []string) error
}

var commands = map[string]command{
	"whoami":                {summary: "print the session claims", run: runWhoami},
	"claims":                {summary: "re-read the claims from the auth service", run: runClaims},
	"login":                 {summary: "log in with email and password", run: runLogin},
	"logout":                {summary: "replace the session with an anonymous one", allowUnsynced: true, run: runLogout},
	"register":              {summary: "request a registration link", run: runRegister},
	"complete-registration": {summary: "create the account from a registration link", run: runCompleteRegistration},
	"reset-password":        {summary: "request a password reset link", run: runResetPassword},
	"complete-reset":        {summary: "set a new password from a reset link", run: runCompleteReset},
	"update-password":       {summary: "change the password of the logged in user", run: runUpdatePassword},
	"update-email":          {summary: "request an email change for the logged in user", run: runUpdateEmail},
	"validate-email":        {summary: "apply an email change from a validation link", run: runValidateEmail},
	"guard":                 {summary: "check the session against required roles", run: runGuard},
	"health":                {summary: "print the auth service health report", allowUnsynced: true, run: runHealth},
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet("agora "+name, pflag.ContinueOnError)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runWhoami(e *env, args []string) error {
	claims := e.session.Claims()
	if claims == nil {
		return session.ErrNotSynced
	}
	out := struct {
		*auth.Claims
		Authenticated bool   `json:"authenticated"`
		Email         string `json:"email,omitempty"`
	}{Claims: claims, Authenticated: e.session.Authenticated()}

	if out.Authenticated {
		creds, err := e.account.CurrentUser(e.ctx)
		if err != nil {
			return fmt.Errorf("load current user: %w", err)
		}
		out.Email = creds.Email
	}
	return printJSON(out)
}

func runClaims(e *env, args []string) error {
	if err := e.session.RefreshClaims(e.ctx); err != nil {
		return err
	}
	return printJSON(e.session.Claims())
}

func runLogin(e *env, args []string) error {
	var form forms.Login
	fs := newFlagSet("login")
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.Password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejected(e.account.Login(e.ctx, form)); err != nil {
		return err
	}
	fmt.Println("logged in as", e.session.Claims().UserID)
	return nil
}

func runLogout(e *env, args []string) error {
	if err := e.account.Logout(e.ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func emailRequestFlags(name string, form *forms.EmailRequest) *pflag.FlagSet {
	fs := newFlagSet(name)
	fs.StringVar(&form.Email, "email", "", "email address")
	fs.StringVar((*string)(&form.Lang), "lang", "", "language of the mail: en or fr")
	return fs
}

func runRegister(e *env, args []string) error {
	var form forms.EmailRequest
	if err := emailRequestFlags("register", &form).Parse(args); err != nil {
		return err
	}
	if err := rejected(e.account.RequestRegistration(e.ctx, form)); err != nil {
		return err
	}
	fmt.Println("registration link sent to", form.Email)
	return nil
}

func newPasswordFlags(fs *pflag.FlagSet, form *forms.NewPassword) {
	fs.StringVar(&form.Password, "password", "", "new password")
	fs.StringVar(&form.PasswordConfirmation, "confirm", "", "new password, again")
}

// linkParams reads the query and fragment of a mailed link
func linkParams(link string) (url.Values, string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, "", fmt.Errorf("parse link: %w", err)
	}
	return u.Query(), u.Fragment, nil
}

func runCompleteRegistration(e *env, args []string) error {
	var form forms.NewPassword
	var link, fragment, code string
	fs := newFlagSet("complete-registration")
	fs.StringVar(&link, "link", "", "registration link received by mail")
	fs.StringVar(&fragment, "fragment", "", "email fragment of the link, when --link is not used")
	fs.StringVar(&code, "code", "", "short code of the link, when --link is not used")
	newPasswordFlags(fs, &form)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if link != "" {
		query, frag, err := linkParams(link)
		if err != nil {
			return err
		}
		fragment, code = frag, query.Get("shortCode")
	}
	if err := rejected(e.account.CompleteRegistration(e.ctx, fragment, code, form)); err != nil {
		return err
	}
	fmt.Println("account created, logged in as", e.session.Claims().UserID)
	return nil
}

func runResetPassword(e *env, args []string) error {
	var form forms.EmailRequest
	if err := emailRequestFlags("reset-password", &form).Parse(args); err != nil {
		return err
	}
	if err := rejected(e.account.RequestPasswordReset(e.ctx, form)); err != nil {
		return err
	}
	fmt.Println("password reset link sent to", form.Email)
	return nil
}

// userLinkFlags reads userID and shortCode from --link or from explicit flags
func userLinkFlags(fs *pflag.FlagSet, args []string) (string, string, error) {
	var link, userID, code string
	fs.StringVar(&link, "link", "", "link received by mail")
	fs.StringVar(&userID, "user", "", "user ID of the link, when --link is not used")
	fs.StringVar(&code, "code", "", "short code of the link, when --link is not used")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if link != "" {
		query, _, err := linkParams(link)
		if err != nil {
			return "", "", err
		}
		return query.Get("userID"), query.Get("shortCode"), nil
	}
	return userID, code, nil
}

func runCompleteReset(e *env, args []string) error {
	var form forms.NewPassword
	fs := newFlagSet("complete-reset")
	newPasswordFlags(fs, &form)
	userID, code, err := userLinkFlags(fs, args)
	if err != nil {
		return err
	}
	if err := rejected(e.account.CompletePasswordReset(e.ctx, userID, code, form)); err != nil {
		return err
	}
	fmt.Println("password updated")
	return nil
}

func runUpdatePassword(e *env, args []string) error {
	var form forms.UpdatePassword
	fs := newFlagSet("update-password")
	fs.StringVar(&form.CurrentPassword, "current", "", "current password")
	fs.StringVar(&form.Password, "password", "", "new password")
	fs.StringVar(&form.PasswordConfirmation, "confirm", "", "new password, again")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := rejected(e.account.UpdatePassword(e.ctx, form)); err != nil {
		return err
	}
	fmt.Println("password updated")
	return nil
}

func runUpdateEmail(e *env, args []string) error {
	var form forms.EmailRequest
	if err := emailRequestFlags("update-email", &form).Parse(args); err != nil {
		return err
	}
	if err := rejected(e.account.RequestEmailUpdate(e.ctx, form)); err != nil {
		return err
	}
	fmt.Println("validation link sent to", form.Email)
	return nil
}

func runValidateEmail(e *env, args []string) error {
	userID, code, err := userLinkFlags(newFlagSet("validate-email"), args)
	if err != nil {
		return err
	}
	email, res := e.account.ValidateEmail(e.ctx, userID, code)
	if err := rejected(res); err != nil {
		return err
	}
	fmt.Println("email updated to", email)
	return nil
}

func runGuard(e *env, args []string) error {
	var roles []string
	fs := newFlagSet("guard")
	fs.StringSliceVar(&roles, "role", nil, "required role, e.g. auth:admin (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	required := make([]auth.Role, 0, len(roles))
	for _, role := range roles {
		required = append(required, auth.Role(role))
	}

	state := e.session.Guard(required...)
	fmt.Println(state)
	switch state {
	case session.GuardForbidden:
		return &exitError{code: exitForbidden, err: errors.New("forbidden")}
	case session.GuardLoading:
		return &exitError{code: exitFatal, err: session.ErrNotSynced}
	}
	return nil
}

func runHealth(e *env, args []string) error {
	report, err := e.client.Health(e.ctx)
	if len(report) > 0 {
		if printErr := printJSON(report); printErr != nil {
			return printErr
		}
	}
	return err
}

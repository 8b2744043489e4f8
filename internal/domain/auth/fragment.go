package auth

import (
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidFragment is returned for a link fragment that does not carry an email
var ErrInvalidFragment = errors.New("invalid email fragment")

// EncodeEmailFragment encodes email for the fragment of a registration link
func EncodeEmailFragment(email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email))
}

// DecodeEmailFragment reverses EncodeEmailFragment. Padded input and a leading '#' are
// accepted. The result is not authenticated, the service checks it along with the short code.
func DecodeEmailFragment(fragment string) (string, error) {
	fragment = strings.TrimRight(strings.TrimPrefix(strings.TrimSpace(fragment), "#"), "=")
	if fragment == "" {
		return "", ErrInvalidFragment
	}
	raw, err := base64.RawURLEncoding.DecodeString(fragment)
	if err != nil {
		return "", errors.Join(ErrInvalidFragment, err)
	}
	email := string(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", errors.Join(ErrInvalidFragment, err)
	}
	// Display names and angle brackets are not emails
	if addr.Address != email {
		return "", ErrInvalidFragment
	}
	return email, nil
}

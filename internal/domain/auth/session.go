package auth

// SessionStorageKey is the fixed key the serialized session lives under
const SessionStorageKey = "a-novel-session"

// TokenPair is what the auth API hands out when a session is created or refreshed
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Session is the client side session value
type Session struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	Claims       *Claims `json:"claims,omitempty"`
}

// Tokens returns the token pair of the session
func (s Session) Tokens() TokenPair {
	return TokenPair{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

// Clone returns a deep copy of the session
func (s Session) Clone() Session {
	s.Claims = s.Claims.Clone()
	return s
}

// IsAuthenticated reports whether the session belongs to an identified user.
// Sessions without resolved claims are not authenticated.
func (s Session) IsAuthenticated() bool {
	return s.Claims != nil && !s.Claims.IsAnonymous()
}

package auth

import "context"

// SessionStore persists the client session under SessionStorageKey
type SessionStore interface {
	// Load returns the stored session, or nil when none is stored
	Load(ctx context.Context) (*Session, error)

	// Save replaces the stored session
	Save(ctx context.Context, session Session) error
}

// CredentialsRepository defines the interface for account persistence
type CredentialsRepository interface {
	// GetCredentials retrieves credentials by ID
	GetCredentials(ctx context.Context, id string) (*Credentials, error)

	// GetCredentialsByEmail retrieves credentials by email
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)

	// CreateCredentials creates new credentials, ErrConflict if the email is taken
	CreateCredentials(ctx context.Context, creds *Credentials) error

	// UpdateCredentials updates existing credentials
	UpdateCredentials(ctx context.Context, creds *Credentials) error
}

// ShortCodeRepository defines the interface for short code persistence
type ShortCodeRepository interface {
	// SaveShortCode stores a code, replacing any live code for the same target and usage
	SaveShortCode(ctx context.Context, code *ShortCode) error

	// ConsumeShortCode runs check on the stored code under a lock and deletes the code
	// when check succeeds. ErrForbidden when no code is stored.
	ConsumeShortCode(ctx context.Context, target string, usage ShortCodeUsage, check func(*ShortCode) error) (*ShortCode, error)
}

// Mailer delivers short codes out of band
type Mailer interface {
	SendShortCode(ctx context.Context, to string, lang Lang, usage ShortCodeUsage, link string) error
}

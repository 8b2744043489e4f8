package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agora/internal/domain/auth"
)

// CredentialsRepository is an in-memory implementation of auth.CredentialsRepository
type CredentialsRepository struct {
	mu      sync.RWMutex
	byID    map[string]*auth.Credentials // ID -> Credentials
	byEmail map[string]string            // lowercased email -> ID
}

// NewCredentialsRepository creates a new in-memory credentials repository
func NewCredentialsRepository() *CredentialsRepository {
	return &CredentialsRepository{
		byID:    make(map[string]*auth.Credentials),
		byEmail: make(map[string]string),
	}
}

// GetCredentials retrieves credentials by ID
func (r *CredentialsRepository) GetCredentials(ctx context.Context, id string) (*auth.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	creds, exists := r.byID[id]
	if !exists {
		return nil, fmt.Errorf("credentials %s: %w", id, auth.ErrNotFound)
	}
	out := *creds
	return &out, nil
}

// GetCredentialsByEmail retrieves credentials by email, ignoring case
func (r *CredentialsRepository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEmail[strings.ToLower(email)]
	if !exists {
		return nil, fmt.Errorf("credentials for email: %w", auth.ErrNotFound)
	}
	out := *r.byID[id]
	return &out, nil
}

// CreateCredentials stores new credentials
func (r *CredentialsRepository) CreateCredentials(ctx context.Context, creds *auth.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[creds.ID]; exists {
		return fmt.Errorf("credentials %s: %w", creds.ID, auth.ErrConflict)
	}
	email := strings.ToLower(creds.Email)
	if _, exists := r.byEmail[email]; exists {
		return fmt.Errorf("email already registered: %w", auth.ErrConflict)
	}

	stored := *creds
	r.byID[creds.ID] = &stored
	r.byEmail[email] = creds.ID
	return nil
}

// UpdateCredentials replaces existing credentials
func (r *CredentialsRepository) UpdateCredentials(ctx context.Context, creds *auth.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, exists := r.byID[creds.ID]
	if !exists {
		return fmt.Errorf("credentials %s: %w", creds.ID, auth.ErrNotFound)
	}

	// Update email index if email changed
	oldEmail, newEmail := strings.ToLower(old.Email), strings.ToLower(creds.Email)
	if oldEmail != newEmail {
		if _, taken := r.byEmail[newEmail]; taken {
			return fmt.Errorf("email already registered: %w", auth.ErrConflict)
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = creds.ID
	}

	stored := *creds
	r.byID[creds.ID] = &stored
	return nil
}

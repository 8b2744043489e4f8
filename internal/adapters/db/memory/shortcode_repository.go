package memory

import (
	"context"
	"fmt"
	"sync"

	"agora/internal/domain/auth"
)

type shortCodeKey struct {
	target string
	usage  auth.ShortCodeUsage
}

// ShortCodeRepository is an in-memory implementation of auth.ShortCodeRepository
type ShortCodeRepository struct {
	mu    sync.Mutex
	codes map[shortCodeKey]*auth.ShortCode
}

// NewShortCodeRepository creates a new in-memory short code repository
func NewShortCodeRepository() *ShortCodeRepository {
	return &ShortCodeRepository{codes: make(map[shortCodeKey]*auth.ShortCode)}
}

// SaveShortCode stores code, replacing the live code for the same target and usage
func (r *ShortCodeRepository) SaveShortCode(ctx context.Context, code *auth.ShortCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *code
	r.codes[shortCodeKey{code.Target, code.Usage}] = &stored
	return nil
}

// ConsumeShortCode checks and deletes the code of target and usage. The whole operation
// holds the repository lock so a code is consumed at most once.
func (r *ShortCodeRepository) ConsumeShortCode(ctx context.Context, target string, usage auth.ShortCodeUsage, check func(*auth.ShortCode) error) (*auth.ShortCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := shortCodeKey{target, usage}
	code, exists := r.codes[key]
	if !exists {
		return nil, fmt.Errorf("no %s short code: %w", usage, auth.ErrForbidden)
	}
	out := *code
	if err := check(&out); err != nil {
		return nil, err
	}
	delete(r.codes, key)
	return &out, nil
}

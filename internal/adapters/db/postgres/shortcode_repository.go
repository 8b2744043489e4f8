package postgres

import (
	"context"
	"errors"
	"fmt"

	"agora/internal/domain/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShortCodeRepository is a Postgres implementation of auth.ShortCodeRepository.
// Consumption is serialized per target and usage with an advisory lock.
type ShortCodeRepository struct {
	pool  *pgxpool.Pool
	locks *LockManager
}

// NewShortCodeRepository constructs a ShortCodeRepository
func NewShortCodeRepository(pool *pgxpool.Pool) *ShortCodeRepository {
	return &ShortCodeRepository{pool: pool, locks: NewLockManager(pool)}
}

func lockKey(target string, usage auth.ShortCodeUsage) string {
	return "shortcode:" + target + ":" + string(usage)
}

// SaveShortCode stores code, replacing the live code for the same target and usage
func (r *ShortCodeRepository) SaveShortCode(ctx context.Context, code *auth.ShortCode) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO short_codes (target,usage,code_hash,data,expires_at,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (target,usage) DO UPDATE
		SET code_hash=EXCLUDED.code_hash, data=EXCLUDED.data, expires_at=EXCLUDED.expires_at, created_at=EXCLUDED.created_at`,
		code.Target, string(code.Usage), code.CodeHash, code.Data, code.ExpiresAt, code.CreatedAt)
	if err != nil {
		return fmt.Errorf("save %s short code: %w", code.Usage, err)
	}
	return nil
}

// ConsumeShortCode checks and deletes the code of target and usage
func (r *ShortCodeRepository) ConsumeShortCode(ctx context.Context, target string, usage auth.ShortCodeUsage, check func(*auth.ShortCode) error) (*auth.ShortCode, error) {
	var out *auth.ShortCode
	err := r.locks.WithLock(ctx, lockKey(target, usage), func(ctx context.Context) error {
		code := auth.ShortCode{Target: target, Usage: usage}
		err := r.pool.QueryRow(ctx, `SELECT code_hash,data,expires_at,created_at FROM short_codes WHERE target=$1 AND usage=$2`,
			target, string(usage)).Scan(&code.CodeHash, &code.Data, &code.ExpiresAt, &code.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no %s short code: %w", usage, auth.ErrForbidden)
		}
		if err != nil {
			return fmt.Errorf("load %s short code: %w", usage, err)
		}
		if err := check(&code); err != nil {
			return err
		}
		if _, err := r.pool.Exec(ctx, `DELETE FROM short_codes WHERE target=$1 AND usage=$2`, target, string(usage)); err != nil {
			return fmt.Errorf("delete %s short code: %w", usage, err)
		}
		out = &code
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

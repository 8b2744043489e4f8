package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agora/internal/domain/auth"

	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE of a unique constraint failure
const uniqueViolation = pq.ErrorCode("23505")

const credentialsColumns = `id,email,password_hash,role,created_at,updated_at`

// CredentialsRepository is a Postgres implementation of auth.CredentialsRepository
type CredentialsRepository struct {
	db *sql.DB
}

// NewCredentialsRepository constructs a CredentialsRepository
func NewCredentialsRepository(db *sql.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCredentials(row scanner) (*auth.Credentials, error) {
	var c auth.Credentials
	var role string
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash, &role, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Role = auth.Role(role)
	return &c, nil
}

// mapError converts driver errors into domain errors
func mapError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, auth.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, auth.ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (r *CredentialsRepository) GetCredentials(ctx context.Context, id string) (*auth.Credentials, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialsColumns+` FROM credentials WHERE id=$1`, id)
	c, err := scanCredentials(row)
	if err != nil {
		return nil, mapError(err, "get credentials "+id)
	}
	return c, nil
}

// GetCredentialsByEmail matches email case-insensitively
func (r *CredentialsRepository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialsColumns+` FROM credentials WHERE lower(email)=lower($1)`, email)
	c, err := scanCredentials(row)
	if err != nil {
		return nil, mapError(err, "get credentials by email")
	}
	return c, nil
}

func (r *CredentialsRepository) CreateCredentials(ctx context.Context, creds *auth.Credentials) error {
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = time.Now()
	}
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = creds.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO credentials (`+credentialsColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		creds.ID, creds.Email, creds.PasswordHash, string(creds.Role), creds.CreatedAt, creds.UpdatedAt)
	if err != nil {
		return mapError(err, "create credentials")
	}
	return nil
}

func (r *CredentialsRepository) UpdateCredentials(ctx context.Context, creds *auth.Credentials) error {
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `UPDATE credentials SET email=$2,password_hash=$3,role=$4,updated_at=$5 WHERE id=$1`,
		creds.ID, creds.Email, creds.PasswordHash, string(creds.Role), creds.UpdatedAt)
	if err != nil {
		return mapError(err, "update credentials "+creds.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credentials %s: %w", creds.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update credentials %s: %w", creds.ID, auth.ErrNotFound)
	}
	return nil
}

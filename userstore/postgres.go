// Package userstore provides a Postgres implementation of
// recipeAuth.UserStore.
package userstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/permission"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, role, status, email_verification_status,
	failed_login_attempts, last_failed_login_at, locked_at, lock_reason, last_login_at,
	password_changed_at, email_verified_at, tenant_id, is_active, is_deleted, created_at, updated_at`

// Postgres is a recipeAuth.UserStore backed by a users table.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

var _ recipeAuth.UserStore = (*Postgres)(nil)

// Open connects with the pgx driver and pool defaults sized for an auth
// service.
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Close closes the underlying pool.
func (s *Postgres) Close() error { return s.db.Close() }

// DB exposes the pool for migrations and health checks.
func (s *Postgres) DB() *sql.DB { return s.db }

// Ping checks connectivity.
func (s *Postgres) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Migrate creates the users table when missing.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// FindByEmail loads a user by normalized email.
func (s *Postgres) FindByEmail(ctx context.Context, email string) (*recipeAuth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email = $1`, normalizeEmail(email))
	return scanUser(row)
}

// FindByID loads a user by id.
func (s *Postgres) FindByID(ctx context.Context, id string) (*recipeAuth.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

// Create inserts a user. A unique violation on email yields
// recipeAuth.ErrEmailTaken.
func (s *Postgres) Create(ctx context.Context, input recipeAuth.CreateUserInput) (*recipeAuth.User, error) {
	now := s.now().UTC()
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, password_hash, role, status, email_verification_status,
			tenant_id, is_active, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		returning `+userColumns,
		uuid.NewString(),
		normalizeEmail(input.Email),
		input.PasswordHash,
		string(input.Role),
		string(input.Status),
		string(input.EmailVerificationStatus),
		input.TenantID,
		input.IsActive,
		now,
	)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, recipeAuth.ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// EmailExists reports whether email is registered.
func (s *Postgres) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `select exists(select 1 from users where email = $1)`, normalizeEmail(email)).Scan(&exists)
	return exists, err
}

// IncrementFailedLoginAttempts bumps the counter and applies the lockout
// policy in one statement. The row lock taken by the CTE serializes
// concurrent attempts on the same user, so exactly one of them reports
// Locked.
func (s *Postgres) IncrementFailedLoginAttempts(ctx context.Context, id string, policy recipeAuth.LockoutPolicy) (recipeAuth.FailedLoginResult, error) {
	now := s.now().UTC()
	var result recipeAuth.FailedLoginResult
	err := s.db.QueryRowContext(ctx, `
		with prev as (
			select id, status from users where id = $1 for update
		)
		update users u set
			failed_login_attempts = u.failed_login_attempts + 1,
			last_failed_login_at = $2,
			status = case when u.failed_login_attempts + 1 >= $3 then 'locked' else u.status end,
			is_active = case when u.failed_login_attempts + 1 >= $3 then false else u.is_active end,
			locked_at = case when u.failed_login_attempts + 1 >= $3 and prev.status <> 'locked' then $2 else u.locked_at end,
			lock_reason = case when u.failed_login_attempts + 1 >= $3 and prev.status <> 'locked' then $4 else u.lock_reason end,
			updated_at = $2
		from prev
		where u.id = prev.id
		returning u.failed_login_attempts, (u.status = 'locked' and prev.status <> 'locked')
	`, id, now, policy.Threshold, policy.Reason).Scan(&result.Attempts, &result.Locked)
	if errors.Is(err, sql.ErrNoRows) {
		return recipeAuth.FailedLoginResult{}, recipeAuth.ErrUserNotFound
	}
	if err != nil {
		return recipeAuth.FailedLoginResult{}, err
	}
	return result, nil
}

// ResetFailedLoginAttempts zeroes the failure counter.
func (s *Postgres) ResetFailedLoginAttempts(ctx context.Context, id string) error {
	return s.exec(ctx, `
		update users set failed_login_attempts = 0, last_failed_login_at = null, updated_at = $2
		where id = $1
	`, id, s.now().UTC())
}

// UpdateLastLogin stamps the last successful login.
func (s *Postgres) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx, `update users set last_login_at = $2, updated_at = $3 where id = $1`, id, at, s.now().UTC())
}

// UpdatePassword stores a new hash and its change time.
func (s *Postgres) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	return s.exec(ctx, `
		update users set password_hash = $2, password_changed_at = $3, updated_at = $4
		where id = $1
	`, id, passwordHash, at, s.now().UTC())
}

// MarkEmailVerified activates pending accounts; other statuses are kept.
func (s *Postgres) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	return s.exec(ctx, `
		update users set
			email_verification_status = 'verified',
			email_verified_at = $2,
			status = case when status = 'pending_verification' then 'active' else status end,
			updated_at = $3
		where id = $1
	`, id, at, s.now().UTC())
}

// Lock marks the account locked with reason.
func (s *Postgres) Lock(ctx context.Context, id, reason string, at time.Time) error {
	return s.exec(ctx, `
		update users set status = 'locked', is_active = false, locked_at = $2, lock_reason = $3, updated_at = $4
		where id = $1
	`, id, at, reason, s.now().UTC())
}

// Unlock reactivates the account and clears the failure counter.
func (s *Postgres) Unlock(ctx context.Context, id string) error {
	return s.exec(ctx, `
		update users set
			status = case when email_verification_status = 'verified' then 'active' else 'pending_verification' end,
			is_active = true,
			locked_at = null,
			lock_reason = '',
			failed_login_attempts = 0,
			last_failed_login_at = null,
			updated_at = $2
		where id = $1
	`, id, s.now().UTC())
}

func (s *Postgres) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return recipeAuth.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*recipeAuth.User, error) {
	var u recipeAuth.User
	var role, status, verification string
	var lastFailed, lockedAt, lastLogin, pwChanged, emailVerified sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &role, &status, &verification,
		&u.FailedLoginAttempts, &lastFailed, &lockedAt, &u.LockReason, &lastLogin,
		&pwChanged, &emailVerified, &u.TenantID, &u.IsActive, &u.IsDeleted, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recipeAuth.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Role = permission.Role(role)
	u.Status = recipeAuth.AccountStatus(status)
	u.EmailVerificationStatus = recipeAuth.EmailVerificationStatus(verification)
	u.LastFailedLoginAt = timePtr(lastFailed)
	u.LockedAt = timePtr(lockedAt)
	u.LastLoginAt = timePtr(lastLogin)
	u.PasswordChangedAt = timePtr(pwChanged)
	u.EmailVerifiedAt = timePtr(emailVerified)
	return &u, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

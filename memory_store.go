package recipeAuth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUserStore is an in-process [UserStore] for tests and local
// development. Every method returns copies, so callers never alias stored
// records.
type MemoryUserStore struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryUserStore returns an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// Put inserts or replaces a user as-is. It is meant for seeding fixtures.
func (s *MemoryUserStore) Put(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if prev, ok := s.byID[user.ID]; ok {
		delete(s.byEmail, prev.Email)
	}
	stored := cloneUser(&user)
	s.byID[user.ID] = stored
	s.byEmail[user.Email] = user.ID
}

// FindByEmail returns a copy of the user registered under email.
func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(s.byID[id]), nil
}

// FindByID returns a copy of the user with id.
func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

// Create stores a new user with a fresh id.
func (s *MemoryUserStore) Create(_ context.Context, input CreateUserInput) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, taken := s.byEmail[email]; taken {
		return nil, ErrEmailTaken
	}

	now := s.now().UTC()
	user := &User{
		ID:                      uuid.NewString(),
		Email:                   email,
		PasswordHash:            input.PasswordHash,
		Role:                    input.Role,
		Status:                  input.Status,
		EmailVerificationStatus: input.EmailVerificationStatus,
		TenantID:                input.TenantID,
		IsActive:                input.IsActive,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID
	return cloneUser(user), nil
}

// EmailExists reports whether email is registered.
func (s *MemoryUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return ok, nil
}

// IncrementFailedLoginAttempts increments and applies the lockout policy
// under one lock acquisition.
func (s *MemoryUserStore) IncrementFailedLoginAttempts(_ context.Context, id string, policy LockoutPolicy) (FailedLoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return FailedLoginResult{}, ErrUserNotFound
	}

	now := s.now().UTC()
	user.FailedLoginAttempts++
	user.LastFailedLoginAt = &now
	user.UpdatedAt = now

	locked := false
	if user.FailedLoginAttempts >= policy.Threshold && user.Status != StatusLocked {
		lockUser(user, policy.Reason, now)
		locked = true
	}
	return FailedLoginResult{Attempts: user.FailedLoginAttempts, Locked: locked}, nil
}

// ResetFailedLoginAttempts zeroes the failure counter.
func (s *MemoryUserStore) ResetFailedLoginAttempts(_ context.Context, id string) error {
	return s.update(id, func(u *User, now time.Time) {
		if u.FailedLoginAttempts == 0 && u.LastFailedLoginAt == nil {
			return
		}
		u.FailedLoginAttempts = 0
		u.LastFailedLoginAt = nil
		u.UpdatedAt = now
	})
}

// UpdateLastLogin stamps the last successful login.
func (s *MemoryUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(u *User, now time.Time) {
		u.LastLoginAt = &at
		u.UpdatedAt = now
	})
}

// UpdatePassword stores a new hash and its change time.
func (s *MemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string, at time.Time) error {
	return s.update(id, func(u *User, now time.Time) {
		u.PasswordHash = passwordHash
		u.PasswordChangedAt = &at
		u.UpdatedAt = now
	})
}

// MarkEmailVerified activates pending accounts. Locked or suspended accounts
// keep their status.
func (s *MemoryUserStore) MarkEmailVerified(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(u *User, now time.Time) {
		u.EmailVerificationStatus = EmailVerified
		u.EmailVerifiedAt = &at
		if u.Status == StatusPendingVerification {
			u.Status = StatusActive
		}
		u.UpdatedAt = now
	})
}

// Lock marks the account locked with reason.
func (s *MemoryUserStore) Lock(_ context.Context, id, reason string, at time.Time) error {
	return s.update(id, func(u *User, now time.Time) {
		lockUser(u, reason, at)
		u.UpdatedAt = now
	})
}

// Unlock restores the status the account would have without the lock.
func (s *MemoryUserStore) Unlock(_ context.Context, id string) error {
	return s.update(id, func(u *User, now time.Time) {
		if u.EmailVerificationStatus == EmailVerified {
			u.Status = StatusActive
		} else {
			u.Status = StatusPendingVerification
		}
		u.IsActive = true
		u.LockedAt = nil
		u.LockReason = ""
		u.FailedLoginAttempts = 0
		u.LastFailedLoginAt = nil
		u.UpdatedAt = now
	})
}

func (s *MemoryUserStore) update(id string, fn func(u *User, now time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	fn(user, s.now().UTC())
	return nil
}

func lockUser(u *User, reason string, at time.Time) {
	u.Status = StatusLocked
	u.IsActive = false
	u.LockedAt = &at
	u.LockReason = reason
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	out := *u
	out.LastFailedLoginAt = cloneTime(u.LastFailedLoginAt)
	out.LockedAt = cloneTime(u.LockedAt)
	out.LastLoginAt = cloneTime(u.LastLoginAt)
	out.PasswordChangedAt = cloneTime(u.PasswordChangedAt)
	out.EmailVerifiedAt = cloneTime(u.EmailVerifiedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

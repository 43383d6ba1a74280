package password

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many bcrypt operations run at once so CPU-heavy hashing
// cannot occupy every request goroutine's processor time.
type Pool struct {
	hasher *Bcrypt
	slots  *semaphore.Weighted
}

// NewPool wraps hasher with size concurrent slots. A size <= 0 uses GOMAXPROCS.
func NewPool(hasher *Bcrypt, size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{hasher: hasher, slots: semaphore.NewWeighted(int64(size))}
}

// Hasher returns the wrapped Bcrypt.
func (p *Pool) Hasher() *Bcrypt {
	return p.hasher
}

// Hash waits for a slot and hashes password.
func (p *Pool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.slots.Release(1)

	return p.hasher.Hash(password)
}

// Verify waits for a slot and compares password against hash. The error is
// non-nil only when ctx ends before a slot frees up.
func (p *Pool) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer p.slots.Release(1)

	return p.hasher.Verify(password, hash), nil
}

// DummyVerify waits for a slot and burns one comparison.
func (p *Pool) DummyVerify(ctx context.Context, password string) error {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.slots.Release(1)

	p.hasher.DummyVerify(password)
	return nil
}

package permission

import "context"

// RoleLookup returns the stored role of a user. found is false when the user
// does not exist; err is reserved for store failures.
type RoleLookup interface {
	LookupRole(ctx context.Context, userID string) (role Role, found bool, err error)
}

// Resolver answers permission questions about users by their current stored
// role. It holds no state besides the lookup.
type Resolver struct {
	lookup RoleLookup
}

// NewResolver returns a Resolver backed by lookup.
func NewResolver(lookup RoleLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// PermissionsOf returns the permission set of userID. found is false for
// unknown users, with an empty set.
func (r *Resolver) PermissionsOf(ctx context.Context, userID string) (Set, bool, error) {
	role, found, err := r.lookup.LookupRole(ctx, userID)
	if err != nil || !found {
		return Set{}, false, err
	}
	return For(role), true, nil
}

// Has reports whether userID holds p. Unknown users yield false with no error.
func (r *Resolver) Has(ctx context.Context, userID string, p Permission) (bool, error) {
	set, _, err := r.PermissionsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Has(p), nil
}

// HasAny reports whether userID holds at least one of ps.
func (r *Resolver) HasAny(ctx context.Context, userID string, ps ...Permission) (bool, error) {
	set, _, err := r.PermissionsOf(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.HasAny(ps...), nil
}

// HasAll reports whether userID holds every one of ps. Unknown users are
// denied even for an empty list.
func (r *Resolver) HasAll(ctx context.Context, userID string, ps ...Permission) (bool, error) {
	set, found, err := r.PermissionsOf(ctx, userID)
	if err != nil || !found {
		return false, err
	}
	return set.HasAll(ps...), nil
}

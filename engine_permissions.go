package recipeAuth

import (
	"context"
	"errors"

	"github.com/MrEthical07/recipeAuth/permission"
)

// storeRoleLookup reads the current stored role so permission checks never
// trust the role claim of a token. Deleted users resolve as absent.
type storeRoleLookup struct {
	store UserStore
}

// LookupRole reads the stored role. Unknown users report false.
func (l storeRoleLookup) LookupRole(ctx context.Context, userID string) (permission.Role, bool, error) {
	user, err := l.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if user.IsDeleted {
		return "", false, nil
	}
	return user.Role, true, nil
}

// UserPermissions returns the permission set of userID's stored role. found
// is false for unknown users.
func (e *Engine) UserPermissions(ctx context.Context, userID string) (permission.Set, bool, error) {
	return e.resolver.PermissionsOf(ctx, userID)
}

// HasPermission reports whether the user's stored role grants p.
func (e *Engine) HasPermission(ctx context.Context, userID string, p permission.Permission) (bool, error) {
	return e.resolver.Has(ctx, userID, p)
}

// HasAnyPermission reports whether the user's stored role grants any of ps.
func (e *Engine) HasAnyPermission(ctx context.Context, userID string, ps ...permission.Permission) (bool, error) {
	return e.resolver.HasAny(ctx, userID, ps...)
}

// HasAllPermissions is false for unknown users even when ps is empty.
func (e *Engine) HasAllPermissions(ctx context.Context, userID string, ps ...permission.Permission) (bool, error) {
	return e.resolver.HasAll(ctx, userID, ps...)
}

// PermissionsFor returns the static permission set of role.
func (e *Engine) PermissionsFor(role permission.Role) permission.Set {
	return permission.For(role)
}

package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/jwt"
	"github.com/MrEthical07/recipeAuth/permission"
)

// RouteConfig is the access policy attached to a route when it is
// registered. The zero value only requires an authenticated identity.
type RouteConfig struct {
	RequiredRoles       []permission.Role
	RequiredPermissions []permission.Permission
	AdminBypass         bool
	CheckOwnership      bool
	ResourceType        permission.ResourceType

	// ResourceID extracts the target resource id from the request. Required
	// when CheckOwnership is set.
	ResourceID func(*http.Request) string
}

// PermissionQuerier returns the permission set a user holds through their
// current stored role. *recipeAuth.Engine satisfies it.
type PermissionQuerier interface {
	UserPermissions(ctx context.Context, userID string) (permission.Set, bool, error)
}

// OwnershipResolver returns the id of the user owning a resource.
type OwnershipResolver interface {
	OwnerOf(ctx context.Context, resourceType permission.ResourceType, resourceID string) (string, error)
}

// ErrNoOwnerLookup is returned by OwnerLookups for resource types without a
// registered lookup.
var ErrNoOwnerLookup = errors.New("no ownership lookup for resource type")

// OwnerLookupFunc resolves the owner of one resource type.
type OwnerLookupFunc func(ctx context.Context, resourceID string) (string, error)

// OwnerLookups dispatches OwnerOf to one lookup per resource type.
type OwnerLookups map[permission.ResourceType]OwnerLookupFunc

// OwnerOf dispatches to the lookup registered for resourceType. An
// unregistered type yields ErrNoOwnerLookup.
func (l OwnerLookups) OwnerOf(ctx context.Context, resourceType permission.ResourceType, resourceID string) (string, error) {
	lookup, ok := l[resourceType]
	if !ok || lookup == nil {
		return "", fmt.Errorf("%w: %s", ErrNoOwnerLookup, resourceType)
	}
	return lookup(ctx, resourceID)
}

// AccessGuard enforces RouteConfig policies against validated identities.
type AccessGuard struct {
	permissions PermissionQuerier
	owners      OwnershipResolver
}

// NewAccessGuard returns a guard. owners may be nil when no route checks
// ownership; such routes are then always denied.
func NewAccessGuard(permissions PermissionQuerier, owners OwnershipResolver) *AccessGuard {
	return &AccessGuard{permissions: permissions, owners: owners}
}

// Check evaluates route for identity, stopping at the first denial:
//
//  1. no identity: ErrUnauthenticated
//  2. role not in RequiredRoles: ErrForbidden
//  3. stored permission set missing any RequiredPermissions: ErrForbidden
//  4. AdminBypass with an administrative role: allowed
//  5. CheckOwnership: allowed only for the owner or an administrative role
//
// Store errors from step 3 propagate. Ownership lookup failures are denials.
func (g *AccessGuard) Check(ctx context.Context, identity *jwt.Payload, route RouteConfig, resourceID string) error {
	if identity == nil || identity.Subject == "" {
		return recipeAuth.ErrUnauthenticated
	}
	role := permission.Role(identity.Role)

	if len(route.RequiredRoles) > 0 && !hasRole(route.RequiredRoles, role) {
		return recipeAuth.ErrForbidden
	}

	if len(route.RequiredPermissions) > 0 {
		if g == nil || g.permissions == nil {
			return recipeAuth.ErrForbidden
		}
		set, found, err := g.permissions.UserPermissions(ctx, identity.Subject)
		if err != nil {
			return err
		}
		if !found || !set.HasAll(route.RequiredPermissions...) {
			return recipeAuth.ErrForbidden
		}
	}

	if route.AdminBypass && role.IsAdministrative() {
		return nil
	}

	if route.CheckOwnership {
		return g.checkOwnership(ctx, identity, role, route.ResourceType, resourceID)
	}
	return nil
}

func (g *AccessGuard) checkOwnership(ctx context.Context, identity *jwt.Payload, role permission.Role, resourceType permission.ResourceType, resourceID string) error {
	if g == nil || g.owners == nil || resourceID == "" {
		return recipeAuth.ErrForbidden
	}
	owner, err := g.owners.OwnerOf(ctx, resourceType, resourceID)
	if err != nil || owner == "" {
		return recipeAuth.ErrForbidden
	}
	if owner == identity.Subject || role.IsAdministrative() {
		return nil
	}
	return recipeAuth.ErrForbidden
}

func hasRole(roles []permission.Role, role permission.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

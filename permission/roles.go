package permission

import (
	"fmt"
	"strings"
)

// Role is a named bundle of permissions.
type Role string

// Built-in roles, from most to least privileged.
const (
	RoleSuperAdmin  Role = "super_admin"
	RoleAdmin       Role = "admin"
	RoleModerator   Role = "moderator"
	RolePremiumUser Role = "premium_user"
	RoleUser        Role = "user"
	RoleGuest       Role = "guest"
)

var roles = []Role{RoleSuperAdmin, RoleAdmin, RoleModerator, RolePremiumUser, RoleUser, RoleGuest}

// Roles returns the full role enumeration, most privileged first.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is part of the enumeration.
func (r Role) Valid() bool {
	_, ok := table[r]
	return ok
}

// IsAdministrative reports whether r may use admin bypass.
func (r Role) IsAdministrative() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// String returns the wire name of r.
func (r Role) String() string {
	return string(r)
}

// rolePermissions is the static table. Each list is complete on its own.
var rolePermissions = map[Role][]Permission{
	RoleSuperAdmin: catalogue,
	RoleAdmin: {
		UsersCreate, UsersRead, UsersUpdate, UsersDelete, UsersManage,
		ProfilesCreate, ProfilesRead, ProfilesUpdate, ProfilesDelete,
		RecipesCreate, RecipesRead, RecipesUpdate, RecipesDelete, RecipesPublish, RecipesRate, RecipesManage,
		IngredientsCreate, IngredientsRead, IngredientsUpdate, IngredientsDelete, IngredientsManage,
		ShoppingListsCreate, ShoppingListsRead, ShoppingListsUpdate, ShoppingListsDelete, ShoppingListsShare,
		SystemHealth, SystemMetrics, SystemSettings,
		ModerationReview, ModerationApprove, ModerationReject, ModerationFlag,
		NotificationsRead, NotificationsSend, NotificationsManage,
		SearchBasic, SearchAdvanced,
		AuditRead, DataExport,
	},
	RoleModerator: {
		UsersRead,
		ProfilesRead,
		RecipesRead, RecipesUpdate, RecipesPublish,
		IngredientsRead, IngredientsUpdate,
		ModerationReview, ModerationApprove, ModerationReject, ModerationFlag,
		NotificationsRead, NotificationsSend,
		SearchBasic, SearchAdvanced,
	},
	RolePremiumUser: {
		UsersRead, UsersUpdate,
		ProfilesCreate, ProfilesRead, ProfilesUpdate, ProfilesDelete,
		RecipesCreate, RecipesRead, RecipesUpdate, RecipesDelete, RecipesRate,
		IngredientsCreate, IngredientsRead,
		ShoppingListsCreate, ShoppingListsRead, ShoppingListsUpdate, ShoppingListsDelete, ShoppingListsShare,
		NotificationsRead,
		SearchBasic, SearchAdvanced,
		DataExport,
	},
	RoleUser: {
		UsersRead, UsersUpdate,
		ProfilesCreate, ProfilesRead, ProfilesUpdate, ProfilesDelete,
		RecipesCreate, RecipesRead, RecipesUpdate, RecipesDelete, RecipesRate,
		IngredientsRead,
		ShoppingListsCreate, ShoppingListsRead, ShoppingListsUpdate, ShoppingListsDelete,
		NotificationsRead,
		SearchBasic,
	},
	RoleGuest: {
		ProfilesRead,
		RecipesRead,
		IngredientsRead,
		SearchBasic,
	},
}

var (
	registry *Registry
	table    = map[Role]Set{}
)

func init() {
	var err error
	registry, err = NewRegistry(catalogue...)
	if err != nil {
		panic(err)
	}

	for _, role := range roles {
		mask, err := registry.Compile(rolePermissions[role])
		if err != nil {
			panic(fmt.Sprintf("permission: role %q: %v", role, err))
		}
		table[role] = Set{mask: mask}
	}
}

// For returns the permission set of role. Unknown roles yield the empty set.
func For(role Role) Set {
	return table[role]
}

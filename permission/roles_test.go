package permission

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestEveryRoleHasNonEmptyDeterministicSet(t *testing.T) {
	for _, role := range Roles() {
		first := For(role)
		second := For(role)
		if first.Empty() {
			t.Fatalf("role %q has no permissions", role)
		}
		if !first.Equal(second) {
			t.Fatalf("role %q resolved to different sets", role)
		}
		if !slices.Equal(first.List(), second.List()) {
			t.Fatalf("role %q listed differently", role)
		}
		if first.Len() != len(rolePermissions[role]) {
			t.Fatalf("role %q: set has %d permissions, table lists %d", role, first.Len(), len(rolePermissions[role]))
		}
	}
}

func TestUnknownRoleIsEmpty(t *testing.T) {
	if !For(Role("chef")).Empty() {
		t.Fatal("unknown role should resolve to empty set")
	}
	if Role("chef").Valid() {
		t.Fatal("unknown role should not be valid")
	}
}

func TestSuperAdminHoldsCatalogue(t *testing.T) {
	set := For(RoleSuperAdmin)
	if !set.HasAll(Catalogue()...) {
		t.Fatal("super admin must hold every permission")
	}
	if set.Len() != registry.Count() {
		t.Fatalf("super admin has %d of %d", set.Len(), registry.Count())
	}
}

func TestRoleTableSpotChecks(t *testing.T) {
	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleGuest, RecipesRead, true},
		{RoleGuest, RecipesCreate, false},
		{RoleUser, ShoppingListsCreate, true},
		{RoleUser, ShoppingListsShare, false},
		{RolePremiumUser, ShoppingListsShare, true},
		{RolePremiumUser, SearchAdvanced, true},
		{RoleModerator, ModerationApprove, true},
		{RoleModerator, UsersDelete, false},
		{RoleAdmin, UsersManage, true},
		{RoleAdmin, SystemManage, false},
		{RoleSuperAdmin, SystemManage, true},
	}
	for _, tc := range cases {
		if got := For(tc.role).Has(tc.perm); got != tc.want {
			t.Fatalf("%s has %s = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestParseRoleAndAdministrative(t *testing.T) {
	role, ok := ParseRole("  Premium_User ")
	if !ok || role != RolePremiumUser {
		t.Fatalf("ParseRole = %q, %v", role, ok)
	}
	if _, ok := ParseRole("root"); ok {
		t.Fatal("root is not a role")
	}
	for _, role := range Roles() {
		want := role == RoleAdmin || role == RoleSuperAdmin
		if role.IsAdministrative() != want {
			t.Fatalf("%s administrative = %v", role, !want)
		}
	}
}

func TestSetListSortedAndStrings(t *testing.T) {
	set := NewSet(SearchBasic, AuditRead, Permission("bogus:perm"))
	list := set.List()
	if !slices.Equal(list, []Permission{AuditRead, SearchBasic}) {
		t.Fatalf("unexpected list: %v", list)
	}
	if !slices.Equal(set.Strings(), []string{"audit:read", "search:basic"}) {
		t.Fatalf("unexpected strings: %v", set.Strings())
	}
	if set.Has("bogus:perm") {
		t.Fatal("unregistered permission must never be held")
	}
	if !set.HasAll() {
		t.Fatal("empty requirement list is satisfied")
	}
	if set.HasAll(AuditRead, "bogus:perm") || !set.HasAll(AuditRead, SearchBasic) {
		t.Fatal("HasAll mismatch")
	}
	if set.HasAny() {
		t.Fatal("empty any-list is not satisfied")
	}
}

type fakeLookup struct {
	roles map[string]Role
	err   error
}

func (f fakeLookup) LookupRole(_ context.Context, id string) (Role, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	role, ok := f.roles[id]
	return role, ok, nil
}

func TestResolverMembership(t *testing.T) {
	r := NewResolver(fakeLookup{roles: map[string]Role{"mod": RoleModerator, "guest": RoleGuest}})
	ctx := context.Background()

	ok, err := r.Has(ctx, "mod", ModerationReview)
	if err != nil || !ok {
		t.Fatalf("moderator should have review: %v %v", ok, err)
	}
	ok, _ = r.HasAny(ctx, "guest", UsersDelete, RecipesRead)
	if !ok {
		t.Fatal("guest should have one of the permissions")
	}
	ok, _ = r.HasAll(ctx, "guest", UsersDelete, RecipesRead)
	if ok {
		t.Fatal("guest should not have all permissions")
	}
}

func TestResolverUnknownUserIsFalse(t *testing.T) {
	r := NewResolver(fakeLookup{roles: map[string]Role{}})
	ctx := context.Background()

	if ok, err := r.Has(ctx, "ghost", RecipesRead); ok || err != nil {
		t.Fatalf("expected false without error, got %v %v", ok, err)
	}
	if ok, err := r.HasAll(ctx, "ghost"); ok || err != nil {
		t.Fatalf("unknown user must not pass empty HasAll, got %v %v", ok, err)
	}
}

func TestResolverPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("store unavailable")
	r := NewResolver(fakeLookup{err: storeErr})

	if _, err := r.Has(context.Background(), "u", RecipesRead); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

// Package permission defines the fixed role enumeration, the permission
// catalogue, and the static role to permission table used by recipeAuth
// authorization checks.
//
// # Table
//
// Every role maps to an explicitly enumerated permission list; there is no
// role inheritance. Permissions are registered once at package init into an
// immutable 64-bit [Registry] and each role's list is compiled into a [Set]. An
// unknown role resolves to the empty set.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network directly. User roles are read
//     through the [RoleLookup] interface.
//   - Import recipeAuth, jwt, or middleware.
//   - Change the table after init.
package permission

// Package jwt issues and validates the HS256 access and refresh tokens used by
// recipeAuth.
//
// # Wire shape
//
// Every token carries exactly these claims:
//
//	sub       user id
//	email     user email
//	role      role name
//	tenantId  optional tenant, omitted when empty
//	type      "access" or "refresh"
//	iat, exp  NumericDate seconds
//
// Access tokens live 900 seconds and refresh tokens 604800 seconds by default.
// Each kind is signed with its own secret; the kind claim is checked at every
// validation site so one kind is never accepted where the other is expected.
package jwt

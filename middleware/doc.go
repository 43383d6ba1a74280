// Package middleware enforces recipeAuth access policies at the HTTP
// boundary.
//
// # Adapters
//
//   - [Authenticate] validates the bearer token and attaches the identity.
//   - [Require] evaluates a [RouteConfig] through an [AccessGuard].
//   - [RateLimit] applies a per-client token bucket.
//
// Route policies are plain data attached at registration:
//
//	r.With(middleware.Require(guard, middleware.RouteConfig{
//		CheckOwnership: true,
//		AdminBypass:    true,
//		ResourceType:   permission.ResourceRecipe,
//		ResourceID:     func(r *http.Request) string { return chi.URLParam(r, "id") },
//	})).Get("/recipes/{id}", h)
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to the validator).
//   - Decide permissions from the token role (uses the stored role).
//   - Infer resource types from URL paths.
package middleware

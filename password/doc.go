// Package password implements password hashing, verification, strength scoring
// and secure generation with bcrypt defaults.
//
// # Output format
//
// Hashes are standard modular-crypt bcrypt strings:
//
//	$2a$<cost>$<22 char salt><31 char hash>
//
// [Bcrypt.NeedsRehash] reports hashes produced with a cost below the configured
// one (or whose cost cannot be parsed) so the caller can re-hash on the next
// successful login.
//
// # Architecture boundaries
//
// This package owns hashing, verification and password quality only. Lockout,
// reuse and confirmation rules are enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other recipeAuth package.
//   - Log plaintext passwords or hashes.
package password

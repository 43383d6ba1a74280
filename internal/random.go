package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/MrEthical07/recipeAuth/internal/ids"
)

const challengeSecretSize = 32

// ErrMalformedChallenge is returned for tokens that are not "<id>.<secret>".
var ErrMalformedChallenge = errors.New("malformed challenge token")

// NewChallengeToken returns a fresh challenge id, the token handed to the
// user, and the SHA-256 of the secret part for storage.
func NewChallengeToken() (id, token string, secretHash [32]byte, err error) {
	var secret [challengeSecretSize]byte
	if _, err = rand.Read(secret[:]); err != nil {
		return "", "", secretHash, err
	}

	id = ids.New()
	token = id + "." + base64.RawURLEncoding.EncodeToString(secret[:])
	return id, token, sha256.Sum256(secret[:]), nil
}

// ParseChallengeToken splits token into its id and the SHA-256 of its secret.
func ParseChallengeToken(token string) (id string, secretHash [32]byte, err error) {
	id, encoded, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || !ids.Valid(id) {
		return "", secretHash, ErrMalformedChallenge
	}

	secret, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(secret) != challengeSecretSize {
		return "", secretHash, ErrMalformedChallenge
	}

	return id, sha256.Sum256(secret), nil
}

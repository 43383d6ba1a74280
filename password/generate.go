package password

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// DefaultGeneratedLength is used by Generate when length is zero.
	DefaultGeneratedLength = 16

	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{}<>?"
	allChars    = lowerChars + upperChars + digitChars + symbolChars
)

// ErrLengthTooSmall is returned by Generate when length cannot fit one
// character of every class.
var ErrLengthTooSmall = errors.New("generated password length must be at least 4")

// Generate returns a random password of the given length containing at least
// one lowercase letter, uppercase letter, digit and symbol. A zero length
// selects DefaultGeneratedLength.
func Generate(length int) (string, error) {
	if length == 0 {
		length = DefaultGeneratedLength
	}
	if length < 4 {
		return "", ErrLengthTooSmall
	}

	out := make([]byte, 0, length)
	for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed characters do not sit at fixed positions.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

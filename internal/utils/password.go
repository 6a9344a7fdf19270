package utils

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NewDummyHash hashes a random secret at cost.  Comparing against it when
// no account matches makes a login for an unknown email cost the same as a
// wrong password, as long as cost is the one real hashes use.
func NewDummyHash(cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(rand.Text()), cost)
}

// BurnPasswordCheck spends one bcrypt comparison against dummy and always
// returns false.
func BurnPasswordCheck(dummy []byte, plain string) bool {
	_ = bcrypt.CompareHashAndPassword(dummy, []byte(plain))
	return false
}

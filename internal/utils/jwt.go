package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ResetTokenType is the typ claim carried by password reset tokens.  Session
// tokens never carry it, so one can not be replayed as the other.
const ResetTokenType = "pwd_reset"

var (
	// ErrWrongTokenType is returned when a token parses but is not a reset token.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrMissingClaims is returned when a signed token lacks a required claim.
	ErrMissingClaims = errors.New("token is missing required claims")
)

// SessionClaims are embedded in bearer tokens issued at login.  Subject is
// the owner's email, ID is the jti used for revocation.
type SessionClaims struct {
	OwnerID string `json:"owner_id"`
	jwt.RegisteredClaims
}

// SessionToken is a signed bearer token and the claims needed to revoke it.
// ExpiresAt is nil for tokens issued without an exp claim.
type SessionToken struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt *time.Time
}

// NewSessionToken builds and signs an HS256 session token.  A ttl of zero
// or less omits the exp claim entirely.
func NewSessionToken(secret, ownerID, email string, ttl time.Duration, now time.Time) (SessionToken, error) {
	now = now.UTC()
	jti := uuid.NewString()
	claims := SessionClaims{
		OwnerID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  email,
			ID:       jti,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	out := SessionToken{JTI: jti, IssuedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
		out.ExpiresAt = &exp
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}
	out.Token = signed
	return out, nil
}

// ParseSessionToken verifies the signature and, when present, the expiry of
// a session token.  Any failure is returned as an error; callers must treat
// every error as unauthorized.
func ParseSessionToken(secret, raw string, now time.Time) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, hmacKey(secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" || claims.OwnerID == "" || claims.IssuedAt == nil {
		return nil, ErrMissingClaims
	}
	return claims, nil
}

// ParseSessionTokenIgnoringExpiry verifies only the signature.  Logout uses
// it so an already expired token can still be revoked without error.
func ParseSessionTokenIgnoringExpiry(secret, raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, hmacKey(secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.OwnerID == "" {
		return nil, ErrMissingClaims
	}
	return claims, nil
}

// ResetClaims are embedded in password reset tokens.  Subject is the owner id.
type ResetClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// NewResetToken signs a reset token that always carries an exp claim.
func NewResetToken(secret, ownerID, jti string, ttl time.Duration, now time.Time) (string, error) {
	now = now.UTC()
	claims := ResetClaims{
		Type: ResetTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// ParseResetToken verifies signature and expiry and rejects any token whose
// typ claim is not pwd_reset.
func ParseResetToken(secret, raw string, now time.Time) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, hmacKey(secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	); err != nil {
		return nil, err
	}
	if claims.Type != ResetTokenType {
		return nil, ErrWrongTokenType
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrMissingClaims
	}
	return claims, nil
}

func hmacKey(secret string) jwt.Keyfunc {
	return func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}
}

// NewResetJTI returns 24 random bytes hex encoded.
func NewResetJTI() (string, error) {
	return randomHex(24)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

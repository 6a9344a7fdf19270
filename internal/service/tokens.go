package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
	"github.com/fitforxe/gym-backend/internal/utils"
)

// Principal is the authenticated caller behind a session token.
type Principal struct {
	Owner     *model.Owner
	JTI       string
	ExpiresAt *time.Time
}

// Tokens issues, validates and revokes session tokens.
//
// A token without exp is still bounded: it stops validating maxAge after
// its iat.  That bound is also the deadline used for its revocation entry,
// so revocation storage never has to keep a jti forever.
type Tokens struct {
	secret  string
	ttl     time.Duration
	maxAge  time.Duration
	owners  OwnerStore
	revoked RevocationStore
	now     func() time.Time
}

func NewTokens(secret string, ttl, maxAge time.Duration, owners OwnerStore, revoked RevocationStore) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, maxAge: maxAge, owners: owners, revoked: revoked, now: time.Now}
}

// Issue signs a new session token for owner.
func (t *Tokens) Issue(owner *model.Owner) (utils.SessionToken, error) {
	return utils.NewSessionToken(t.secret, owner.ID, owner.Email, t.ttl, t.now())
}

// Validate checks signature, expiry, revocation and the owner behind the
// token.  Every rejection is ErrUnauthorized; a failing revocation lookup
// is returned as is and must also be treated as a rejection.
func (t *Tokens) Validate(ctx context.Context, raw string) (*Principal, error) {
	now := t.now()
	claims, err := utils.ParseSessionToken(t.secret, raw, now)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.ExpiresAt == nil && now.Sub(claims.IssuedAt.Time) > t.maxAge {
		return nil, ErrUnauthorized
	}

	revoked, err := t.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return nil, ErrUnauthorized
	}

	owner, err := t.owners.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if owner.ID != claims.OwnerID {
		return nil, ErrUnauthorized
	}

	p := &Principal{Owner: owner, JTI: claims.ID}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		p.ExpiresAt = &exp
	}
	return p, nil
}

// Revoke blacklists the token's jti until the token could no longer
// validate anyway.  Expired tokens are accepted so logout stays idempotent;
// a bad signature is ErrUnauthorized.
func (t *Tokens) Revoke(ctx context.Context, raw string) error {
	claims, err := utils.ParseSessionTokenIgnoringExpiry(t.secret, raw)
	if err != nil {
		return ErrUnauthorized
	}
	until := t.deadline(claims)
	if !until.After(t.now()) {
		return nil
	}
	if err := t.revoked.Revoke(ctx, claims.ID, claims.OwnerID, until); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	log.Debug().Str("jti", claims.ID).Str("owner_id", claims.OwnerID).Time("until", until).Msg("session revoked")
	return nil
}

func (t *Tokens) deadline(c *utils.SessionClaims) time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.Time.Add(t.maxAge)
	}
	return t.now().Add(t.maxAge)
}

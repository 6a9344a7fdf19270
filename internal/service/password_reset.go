package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
	"github.com/fitforxe/gym-backend/internal/utils"
)

// ResetConfig carries the password reset settings.
type ResetConfig struct {
	Secret      string
	TTL         time.Duration
	FrontendURL string
	ShowURL     bool
	BcryptCost  int
}

// ResetResult is returned by RequestReset.  It has the same shape whether
// or not an account matched; ResetURL is set only when ShowURL is enabled
// and a link was actually produced.
type ResetResult struct {
	ResetURL string
}

// PasswordReset issues and redeems single-use reset tokens.
type PasswordReset struct {
	cfg    ResetConfig
	owners OwnerStore
	resets ResetStore
	now    func() time.Time
}

func NewPasswordReset(cfg ResetConfig, owners OwnerStore, resets ResetStore) *PasswordReset {
	return &PasswordReset{cfg: cfg, owners: owners, resets: resets, now: time.Now}
}

// RequestReset creates a reset link for the owner matching both email and
// gym name.  No match is not an error.
func (s *PasswordReset) RequestReset(ctx context.Context, email, gymName string) (ResetResult, error) {
	owner, err := s.owners.GetByEmailAndGym(ctx, email, gymName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Debug().Msg("password reset requested for unknown account")
			return ResetResult{}, nil
		}
		return ResetResult{}, err
	}

	jti, err := utils.NewResetJTI()
	if err != nil {
		return ResetResult{}, err
	}
	now := s.now().UTC()
	rec := &model.PasswordReset{
		ID:        uuid.NewString(),
		OwnerID:   owner.ID,
		JTI:       jti,
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, rec); err != nil {
		return ResetResult{}, fmt.Errorf("store reset: %w", err)
	}
	token, err := utils.NewResetToken(s.cfg.Secret, owner.ID, jti, s.cfg.TTL, now)
	if err != nil {
		return ResetResult{}, err
	}

	link := s.cfg.FrontendURL + "/reset-password?token=" + url.QueryEscape(token)
	log.Info().Str("owner_id", owner.ID).Str("jti", jti).Msg("password reset link issued")
	if s.cfg.ShowURL {
		return ResetResult{ResetURL: link}, nil
	}
	return ResetResult{}, nil
}

// PerformReset redeems token and sets newPassword.  A token can succeed at
// most once: the record is claimed with a conditional update before the
// password is written, so of two concurrent calls only one changes it.
func (s *PasswordReset) PerformReset(ctx context.Context, token, newPassword string) error {
	now := s.now()
	claims, err := utils.ParseResetToken(s.cfg.Secret, token, now)
	if err != nil {
		return ErrInvalidOrExpiredToken
	}

	rec, err := s.resets.GetByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	if rec.OwnerID != claims.Subject || !rec.Usable(now) {
		return ErrInvalidOrExpiredToken
	}

	owner, err := s.owners.GetByID(ctx, rec.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return err
	}

	claimed, err := s.resets.MarkUsed(ctx, rec.JTI, now)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrInvalidOrExpiredToken
	}
	if err := s.owners.UpdatePassword(ctx, owner.ID, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	log.Info().Str("owner_id", owner.ID).Msg("password reset completed")
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
	"github.com/fitforxe/gym-backend/internal/utils"
)

// Credentials registers owners and checks their passwords.
type Credentials struct {
	owners     OwnerStore
	profiles   ProfileStore
	bcryptCost int
	dummyHash  []byte
	now        func() time.Time
}

// NewCredentials hashes the unknown-account dummy at bcryptCost so both
// login failure paths spend the same bcrypt work.
func NewCredentials(owners OwnerStore, profiles ProfileStore, bcryptCost int) (*Credentials, error) {
	dummy, err := utils.NewDummyHash(bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy password hash: %w", err)
	}
	return &Credentials{owners: owners, profiles: profiles, bcryptCost: bcryptCost, dummyHash: dummy, now: time.Now}, nil
}

// Register creates an owner with a hashed password and an empty profile.
// A taken email returns ErrConflict.
func (s *Credentials) Register(ctx context.Context, email, password, gymName string) (*model.Owner, error) {
	email = model.NormalizeEmail(email)
	gymName = strings.TrimSpace(gymName)
	if email == "" || gymName == "" {
		return nil, fmt.Errorf("%w: email and gym name are required", ErrValidation)
	}

	if _, err := s.owners.GetByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}

	now := s.now().UTC()
	owner := &model.Owner{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		GymName:      gymName,
		CreatedAt:    now,
	}
	// the unique index decides races the lookup above missed
	if err := s.owners.Create(ctx, owner); err != nil {
		return nil, storeErr(err)
	}
	if err := s.profiles.EnsureDefault(ctx, owner.ID, gymName, now); err != nil {
		// the profile endpoint provisions it lazily
		log.Warn().Err(err).Str("owner_id", owner.ID).Msg("default profile not created")
	}
	return owner, nil
}

// Authenticate returns the owner for a correct email and password.  Unknown
// emails, wrong passwords and a mismatching gym name all produce
// ErrUnauthorized.  An empty gymName is not checked.
func (s *Credentials) Authenticate(ctx context.Context, email, password, gymName string) (*model.Owner, error) {
	owner, err := s.owners.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(s.dummyHash, password)
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !utils.VerifyPassword(owner.PasswordHash, password) {
		return nil, ErrUnauthorized
	}
	if g := strings.TrimSpace(gymName); g != "" && !strings.EqualFold(g, strings.TrimSpace(owner.GymName)) {
		return nil, ErrUnauthorized
	}
	return owner, nil
}

// FindByEmail returns ErrNotFound when no owner has email.
func (s *Credentials) FindByEmail(ctx context.Context, email string) (*model.Owner, error) {
	owner, err := s.owners.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, storeErr(err)
	}
	return owner, nil
}

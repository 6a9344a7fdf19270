package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
)

// ProfileRepo persists the one-per-owner gym profile.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// EnsureDefault provisions an empty profile.  An existing row is left as is.
func (r *ProfileRepo) EnsureDefault(ctx context.Context, ownerID, gymName string, now time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles (owner_id, gym_name, phone, address, website, timezone, updated_at)
		 VALUES (?, ?, '', '', '', 'UTC', ?)
		 ON DUPLICATE KEY UPDATE owner_id = owner_id`,
		ownerID, gymName, now.UTC())
	return err
}

// Get returns the caller's profile.
func (r *ProfileRepo) Get(ctx context.Context, ownerID string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id, gym_name, phone, address, website, timezone, updated_at FROM profiles WHERE owner_id=?",
		ownerID).Scan(&p.OwnerID, &p.GymName, &p.Phone, &p.Address, &p.Website, &p.Timezone, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update applies patch to the caller's profile and returns the result.
func (r *ProfileRepo) Update(ctx context.Context, ownerID string, patch model.ProfilePatch, now time.Time) (*model.Profile, error) {
	p, err := r.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	p.UpdatedAt = now.UTC()
	_, err = r.DB.ExecContext(ctx,
		`UPDATE profiles SET gym_name=?, phone=?, address=?, website=?, timezone=?, updated_at=?
		 WHERE owner_id=?`,
		p.GymName, p.Phone, p.Address, p.Website, p.Timezone, p.UpdatedAt, ownerID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

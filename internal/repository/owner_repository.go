package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
)

// OwnerRepo persists gym owner accounts.
type OwnerRepo struct{ DB *sql.DB }

func NewOwnerRepo(db *sql.DB) *OwnerRepo { return &OwnerRepo{DB: db} }

const ownerColumns = "id, email, password_hash, gym_name, created_at, password_changed_at"

// Create inserts an owner.  The unique index on email turns a concurrent
// duplicate registration into ErrEmailExists.
func (r *OwnerRepo) Create(ctx context.Context, o *model.Owner) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO owners (id, email, password_hash, gym_name, created_at) VALUES (?,?,?,?,?)",
		o.ID, o.Email, o.PasswordHash, o.GymName, o.CreatedAt.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches an owner by normalized email.
func (r *OwnerRepo) GetByEmail(ctx context.Context, email string) (*model.Owner, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+ownerColumns+" FROM owners WHERE email=? LIMIT 1",
		model.NormalizeEmail(email)))
}

// GetByEmailAndGym fetches an owner only when both the email and the gym
// name match.  Used by password reset requests.
func (r *OwnerRepo) GetByEmailAndGym(ctx context.Context, email, gymName string) (*model.Owner, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+ownerColumns+" FROM owners WHERE email=? AND gym_name=? LIMIT 1",
		model.NormalizeEmail(email), strings.TrimSpace(gymName)))
}

// GetByID fetches an owner by id.
func (r *OwnerRepo) GetByID(ctx context.Context, id string) (*model.Owner, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+ownerColumns+" FROM owners WHERE id=? LIMIT 1", id))
}

// UpdatePassword replaces the password hash and stamps password_changed_at.
func (r *OwnerRepo) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE owners SET password_hash=?, password_changed_at=? WHERE id=?",
		hash, changedAt.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OwnerRepo) scanOne(row *sql.Row) (*model.Owner, error) {
	var (
		o       model.Owner
		changed sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.Email, &o.PasswordHash, &o.GymName, &o.CreatedAt, &changed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if changed.Valid {
		t := changed.Time
		o.PasswordChangedAt = &t
	}
	return &o, nil
}

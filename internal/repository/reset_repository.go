package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
)

// ResetRepo persists password reset records.  Rows are never deleted.
type ResetRepo struct{ DB *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{DB: db} }

// Create inserts a new unused reset record.
func (r *ResetRepo) Create(ctx context.Context, rec *model.PasswordReset) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_resets (id, owner_id, jti, expires_at, used, created_at) VALUES (?,?,?,?,0,?)",
		rec.ID, rec.OwnerID, rec.JTI, rec.ExpiresAt.UTC(), rec.CreatedAt.UTC())
	return err
}

// GetByJTI fetches a reset record by its token id.
func (r *ResetRepo) GetByJTI(ctx context.Context, jti string) (*model.PasswordReset, error) {
	var (
		rec    model.PasswordReset
		usedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, owner_id, jti, expires_at, used, created_at, used_at FROM password_resets WHERE jti=? LIMIT 1",
		jti).Scan(&rec.ID, &rec.OwnerID, &rec.JTI, &rec.ExpiresAt, &rec.Used, &rec.CreatedAt, &usedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if usedAt.Valid {
		t := usedAt.Time
		rec.UsedAt = &t
	}
	return &rec, nil
}

// MarkUsed flips an unused, unexpired record to used.  It reports false
// when another request already consumed the record or it has expired.
func (r *ResetRepo) MarkUsed(ctx context.Context, jti string, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE password_resets SET used=1, used_at=? WHERE jti=? AND used=0 AND expires_at > ?",
		at.UTC(), jti, at.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

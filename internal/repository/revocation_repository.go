package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RevokedTokenRepo stores revoked session jtis in MySQL.  Each row keeps
// the instant after which the token would be rejected anyway, so rows past
// it can be purged.
type RevokedTokenRepo struct{ DB *sql.DB }

func NewRevokedTokenRepo(db *sql.DB) *RevokedTokenRepo { return &RevokedTokenRepo{DB: db} }

// Revoke records jti.  Revoking the same jti twice is a no-op.
func (r *RevokedTokenRepo) Revoke(ctx context.Context, jti, ownerID string, until time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO revoked_tokens (jti, owner_id, expires_at, revoked_at) VALUES (?,?,?,UTC_TIMESTAMP())",
		jti, ownerID, until.UTC())
	return err
}

// IsRevoked reports whether jti has been revoked.
func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM revoked_tokens WHERE jti=? LIMIT 1", jti).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired deletes rows whose tokens can no longer validate.
func (r *RevokedTokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
)

// TransactionRepo tracks in-flight gateway checkouts and performs the
// exactly-once settlement transition.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, owner_id, member_id, gateway, gateway_ref, gateway_payment_id, amount,
	currency, payment_method, status, membership_type, metadata, created_at, updated_at, completed_at`

// Create inserts a new transaction for a member of t.OwnerID.  The insert
// reads the member row in the same statement, so it serializes with
// MemberRepo.Delete: a member deleted first yields ErrNotFound.
// (gateway, gateway_ref) is unique.
func (r *TransactionRepo) Create(ctx context.Context, t *model.PaymentTransaction) error {
	meta, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_transactions (`+transactionColumns+`)
		 SELECT ?,?,?,?,?,?,?,?,?,?,?,?,?,?,? FROM members WHERE id=? AND owner_id=?`,
		t.ID, t.OwnerID, t.MemberID, t.Gateway, t.GatewayRef, nullString(t.GatewayPaymentID), t.Amount,
		t.Currency, t.Method, t.Status, t.MembershipType, meta, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
		nullTime(t.CompletedAt), t.MemberID, t.OwnerID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByGatewayRef resolves a transaction from the gateway's session or order
// id alone.  Webhooks use it because they carry no caller identity.
func (r *TransactionRepo) GetByGatewayRef(ctx context.Context, gateway model.Gateway, ref string) (*model.PaymentTransaction, error) {
	return r.getOne(ctx,
		"SELECT "+transactionColumns+" FROM payment_transactions WHERE gateway=? AND gateway_ref=?",
		gateway, ref)
}

// GetByGatewayRefForOwner is GetByGatewayRef restricted to one gym.
func (r *TransactionRepo) GetByGatewayRefForOwner(ctx context.Context, ownerID string, gateway model.Gateway, ref string) (*model.PaymentTransaction, error) {
	return r.getOne(ctx,
		"SELECT "+transactionColumns+" FROM payment_transactions WHERE gateway=? AND gateway_ref=? AND owner_id=?",
		gateway, ref, ownerID)
}

// Complete settles a transaction.  The status transition is a conditional
// update inside the same SQL transaction as the ledger insert and the
// membership extension, so two racing callers can not both settle: the
// loser sees zero affected rows, rolls back and gets false.
func (r *TransactionRepo) Complete(ctx context.Context, s model.Settlement) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	now := s.Payment.CreatedAt.UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE payment_transactions
		 SET status=?, gateway_payment_id=?, completed_at=?, updated_at=?
		 WHERE id=? AND status<>?`,
		model.TxCompleted, s.GatewayPaymentID, now, now, s.TransactionID, model.TxCompleted)
	if err != nil {
		return false, fmt.Errorf("complete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if err := insertPayment(ctx, tx, &s.Payment); err != nil {
		return false, err
	}
	if err := extendMembership(ctx, tx, s.OwnerID, s.MemberID, s.CoverageEnd, true, now); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// MarkStatus moves a transaction that has not completed yet to status.  A
// completed transaction is never downgraded; false is returned instead.
func (r *TransactionRepo) MarkStatus(ctx context.Context, id string, status model.TransactionStatus, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payment_transactions SET status=?, updated_at=? WHERE id=? AND status IN (?, ?)",
		status, at.UTC(), id, model.TxInitiated, model.TxPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *TransactionRepo) getOne(ctx context.Context, q string, args ...any) (*model.PaymentTransaction, error) {
	var (
		t         model.PaymentTransaction
		payID     sql.NullString
		meta      []byte
		completed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&t.ID, &t.OwnerID, &t.MemberID, &t.Gateway, &t.GatewayRef,
		&payID, &t.Amount, &t.Currency, &t.Method, &t.Status, &t.MembershipType, &meta,
		&t.CreatedAt, &t.UpdatedAt, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.GatewayPaymentID = stringPtr(payID)
	t.CompletedAt = timePtr(completed)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &t.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &t, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
)

// PaymentRepo manages the append-only payments ledger.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// PaymentFilter narrows List results.  An empty MemberID lists the whole gym.
type PaymentFilter struct {
	MemberID string
	Skip     int
	Limit    int
}

const paymentColumns = `id, owner_id, member_id, amount, payment_date, payment_method, status,
	membership_type, period_start, period_end, notes, transaction_id, created_at`

// CreateManual records a front-desk payment and extends the member's
// coverage to p.PeriodEnd in one transaction.  The member must belong to
// p.OwnerID, otherwise ErrNotFound is returned and nothing is written.
func (r *PaymentRepo) CreateManual(ctx context.Context, p *model.Payment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockMember(ctx, tx, p.OwnerID, p.MemberID); err != nil {
		return err
	}
	if err := insertPayment(ctx, tx, p); err != nil {
		return err
	}
	if err := extendMembership(ctx, tx, p.OwnerID, p.MemberID, p.PeriodEnd, false, p.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns payments newest first.
func (r *PaymentRepo) List(ctx context.Context, ownerID string, f PaymentFilter) ([]*model.Payment, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if f.MemberID != "" {
		where = append(where, "member_id = ?")
		args = append(args, f.MemberID)
	}
	args = append(args, f.Limit, f.Skip)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE "+strings.Join(where, " AND ")+
			" ORDER BY payment_date DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// lockMember takes a row lock on the member so the coverage update and the
// ledger insert see the same row.  A member of another gym is ErrNotFound.
func lockMember(ctx context.Context, tx *sql.Tx, ownerID, memberID string) error {
	var id string
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM members WHERE id=? AND owner_id=? FOR UPDATE", memberID, ownerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func insertPayment(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OwnerID, p.MemberID, p.Amount, p.PaymentDate.UTC(), p.PaymentMethod, p.Status,
		p.MembershipType, p.PeriodStart.UTC(), p.PeriodEnd.UTC(), nullString(p.Notes), nullString(p.TransactionID),
		p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// extendMembership moves the member's coverage end and reactivates them.
// enableAutoBilling is set only by gateway settlements.
func extendMembership(ctx context.Context, tx *sql.Tx, ownerID, memberID string, end time.Time, enableAutoBilling bool, now time.Time) error {
	q := "UPDATE members SET membership_end_date=?, status=?, updated_at=?"
	if enableAutoBilling {
		q += ", auto_billing_enabled=1"
	}
	q += " WHERE id=? AND owner_id=?"
	if _, err := tx.ExecContext(ctx, q, end.UTC(), model.MemberActive, now.UTC(), memberID, ownerID); err != nil {
		return fmt.Errorf("extend membership: %w", err)
	}
	return nil
}

func scanPayment(s rowScanner) (*model.Payment, error) {
	var (
		p            model.Payment
		notes, txRef sql.NullString
	)
	if err := s.Scan(&p.ID, &p.OwnerID, &p.MemberID, &p.Amount, &p.PaymentDate, &p.PaymentMethod, &p.Status,
		&p.MembershipType, &p.PeriodStart, &p.PeriodEnd, &notes, &txRef, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Notes = stringPtr(notes)
	p.TransactionID = stringPtr(txRef)
	return &p, nil
}

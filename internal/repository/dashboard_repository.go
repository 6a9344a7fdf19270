package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fitforxe/gym-backend/internal/model"
)

// DashboardRepo computes the per-gym aggregates shown on the home screen.
type DashboardRepo struct {
	db *sql.DB
}

func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

// Stats aggregates the owner's data as of now.  Revenue is the sum of paid
// payments dated in now's UTC calendar month.
func (r *DashboardRepo) Stats(ctx context.Context, ownerID string, now time.Time) (*model.DashboardStats, error) {
	var (
		s       model.DashboardStats
		revenue decimal.NullDecimal
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = ?), 0),
		        COALESCE(SUM(status = ? AND membership_end_date < ?), 0)
		 FROM members WHERE owner_id = ?`,
		model.MemberActive, model.MemberActive, now.UTC(), ownerID,
	).Scan(&s.TotalMembers, &s.ActiveMembers, &s.PendingPayments)
	if err != nil {
		return nil, err
	}

	monthStart := model.MonthStart(now)
	err = r.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM payments
		 WHERE owner_id = ? AND status = ? AND payment_date >= ? AND payment_date < ?`,
		ownerID, model.PaymentPaid, monthStart, monthStart.AddDate(0, 1, 0),
	).Scan(&revenue)
	if err != nil {
		return nil, err
	}
	s.MonthlyRevenue = decimal.Zero
	if revenue.Valid {
		s.MonthlyRevenue = revenue.Decimal
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance WHERE owner_id = ? AND attendance_date = ?",
		ownerID, model.DayStart(now),
	).Scan(&s.TodaysCheckins)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

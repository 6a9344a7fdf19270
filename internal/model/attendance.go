package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attendance is one visit.  At most one record per member per UTC day may
// have a nil CheckOutTime.
type Attendance struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"-"`
	MemberID     string     `json:"member_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Date         time.Time  `json:"date"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart truncates t to the first day of its month, UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DashboardStats is the per-owner aggregate shown on the home screen.
// PendingPayments counts members still marked active whose coverage lapsed.
type DashboardStats struct {
	TotalMembers    int64           `json:"total_members"`
	ActiveMembers   int64           `json:"active_members"`
	MonthlyRevenue  decimal.Decimal `json:"monthly_revenue"`
	PendingPayments int64           `json:"pending_payments"`
	TodaysCheckins  int64           `json:"todays_checkins"`
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
)

// AttendanceRepo records gym visits.  The open_slot column is 1 while a
// visit is open and NULL once the member checks out; a unique index over
// (owner_id, member_id, attendance_date, open_slot) therefore allows at
// most one open visit per member per day while permitting any number of
// closed ones.
type AttendanceRepo struct {
	db *sql.DB
}

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{db: db} }

// AttendanceFilter narrows List results.  A nil Date lists every day.
type AttendanceFilter struct {
	Date  *time.Time
	Skip  int
	Limit int
}

const attendanceColumns = "id, owner_id, member_id, check_in_time, check_out_time, attendance_date, created_at"

// CheckIn opens a visit for a.MemberID on a.Date.  It returns ErrNotFound
// when the member is not in the owner's gym and ErrConflict when the
// member already has an open visit that day.
func (r *AttendanceRepo) CheckIn(ctx context.Context, a *model.Attendance) error {
	var id string
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM members WHERE id=? AND owner_id=?", a.MemberID, a.OwnerID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO attendance (id, owner_id, member_id, check_in_time, attendance_date, open_slot, created_at)
		 VALUES (?,?,?,?,?,1,?)`,
		a.ID, a.OwnerID, a.MemberID, a.CheckInTime.UTC(), a.Date.UTC(), a.CreatedAt.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// CheckOut closes the member's open visit on day.  ErrNotFound means there
// was no open visit.
func (r *AttendanceRepo) CheckOut(ctx context.Context, ownerID, memberID string, day, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE attendance SET check_out_time=?, open_slot=NULL
		 WHERE owner_id=? AND member_id=? AND attendance_date=? AND open_slot=1`,
		at.UTC(), ownerID, memberID, day.UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns visits newest check-in first.
func (r *AttendanceRepo) List(ctx context.Context, ownerID string, f AttendanceFilter) ([]*model.Attendance, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if f.Date != nil {
		where = append(where, "attendance_date = ?")
		args = append(args, model.DayStart(*f.Date))
	}
	args = append(args, f.Limit, f.Skip)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE "+strings.Join(where, " AND ")+
			" ORDER BY check_in_time DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Attendance{}
	for rows.Next() {
		var (
			a        model.Attendance
			checkout sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.MemberID, &a.CheckInTime, &checkout, &a.Date, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CheckOutTime = timePtr(checkout)
		out = append(out, &a)
	}
	return out, rows.Err()
}

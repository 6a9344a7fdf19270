package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
)

// MemberRepo encapsulates all queries on the members table.  Every method
// is scoped by owner id.
type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// MemberFilter narrows List results.  A zero Status lists every member.
type MemberFilter struct {
	Status model.MemberStatus
	Skip   int
	Limit  int
}

const memberColumns = `id, owner_id, first_name, last_name, email, phone, date_of_birth,
	membership_type, membership_start_date, membership_end_date, status,
	emergency_contact_name, emergency_contact_phone, medical_conditions,
	auto_billing_enabled, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Create inserts m.  The unique (owner_id, email) index makes a duplicate
// email within the same gym fail with ErrConflict; other gyms may reuse it.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.ID, m.OwnerID, m.FirstName, m.LastName, m.Email, m.Phone, nullTime(m.DateOfBirth),
		m.MembershipType, m.MembershipStartDate.UTC(), m.MembershipEndDate.UTC(), m.Status,
		nullString(m.EmergencyContactName), nullString(m.EmergencyContactPhone), nullString(m.MedicalConditions),
		m.AutoBillingEnabled, m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Get fetches a member by id within the owner's gym.
func (r *MemberRepo) Get(ctx context.Context, ownerID, id string) (*model.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id=? AND owner_id=?", id, ownerID)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns the owner's members ordered by creation time, newest first.
func (r *MemberRepo) List(ctx context.Context, ownerID string, f MemberFilter) ([]*model.Member, error) {
	var (
		where = []string{"owner_id = ?"}
		args  = []any{ownerID}
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	args = append(args, f.Limit, f.Skip)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE "+strings.Join(where, " AND ")+
			" ORDER BY created_at DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update applies patch to the member identified by (ownerID, id) and returns
// the stored result.  Changing the email to one already used in the same
// gym fails with ErrConflict.
func (r *MemberRepo) Update(ctx context.Context, ownerID, id string, patch model.MemberPatch, now time.Time) (*model.Member, error) {
	m, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(m)
	m.UpdatedAt = now.UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET first_name=?, last_name=?, email=?, phone=?, date_of_birth=?,
		 membership_type=?, status=?, emergency_contact_name=?, emergency_contact_phone=?,
		 medical_conditions=?, auto_billing_enabled=?, updated_at=?
		 WHERE id=? AND owner_id=?`,
		m.FirstName, m.LastName, m.Email, m.Phone, nullTime(m.DateOfBirth),
		m.MembershipType, m.Status, nullString(m.EmergencyContactName), nullString(m.EmergencyContactPhone),
		nullString(m.MedicalConditions), m.AutoBillingEnabled, m.UpdatedAt,
		id, ownerID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// deleted between the read and the write
		if _, err := r.Get(ctx, ownerID, id); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Delete removes a member and their attendance history.  Payments and
// gateway transactions keep the member id as a historical reference.  A
// member with a checkout still initiated or pending at a gateway is not
// deleted: ErrOpenCheckout is returned until it settles or expires.
func (r *MemberRepo) Delete(ctx context.Context, ownerID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockMember(ctx, tx, ownerID, id); err != nil {
		return err
	}
	var open int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment_transactions WHERE owner_id=? AND member_id=? AND status IN (?, ?)",
		ownerID, id, model.TxInitiated, model.TxPending).Scan(&open)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrOpenCheckout
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM members WHERE id=? AND owner_id=?", id, ownerID); err != nil {
		return err
	}
	return tx.Commit()
}

func scanMember(s rowScanner) (*model.Member, error) {
	var (
		m                           model.Member
		dob                         sql.NullTime
		emName, emPhone, conditions sql.NullString
	)
	err := s.Scan(&m.ID, &m.OwnerID, &m.FirstName, &m.LastName, &m.Email, &m.Phone, &dob,
		&m.MembershipType, &m.MembershipStartDate, &m.MembershipEndDate, &m.Status,
		&emName, &emPhone, &conditions,
		&m.AutoBillingEnabled, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.DateOfBirth = timePtr(dob)
	m.EmergencyContactName = stringPtr(emName)
	m.EmergencyContactPhone = stringPtr(emPhone)
	m.MedicalConditions = stringPtr(conditions)
	return &m, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

package model

import (
	"strings"
	"time"
)

// MembershipType is the pricing tier of a member.
type MembershipType string

const (
	MembershipBasic   MembershipType = "basic"
	MembershipPremium MembershipType = "premium"
	MembershipVIP     MembershipType = "vip"
)

// Valid reports whether t is a known tier.
func (t MembershipType) Valid() bool {
	switch t {
	case MembershipBasic, MembershipPremium, MembershipVIP:
		return true
	}
	return false
}

// MemberStatus is the lifecycle state of a member.
type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberInactive  MemberStatus = "inactive"
	MemberExpired   MemberStatus = "expired"
	MemberSuspended MemberStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberActive, MemberInactive, MemberExpired, MemberSuspended:
		return true
	}
	return false
}

// Member belongs to exactly one owner.  Email is unique per owner only.
type Member struct {
	ID                    string         `json:"id"`
	OwnerID               string         `json:"-"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	Email                 string         `json:"email"`
	Phone                 string         `json:"phone"`
	DateOfBirth           *time.Time     `json:"date_of_birth,omitempty"`
	MembershipType        MembershipType `json:"membership_type"`
	MembershipStartDate   time.Time      `json:"membership_start_date"`
	MembershipEndDate     time.Time      `json:"membership_end_date"`
	Status                MemberStatus   `json:"status"`
	EmergencyContactName  *string        `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string        `json:"emergency_contact_phone,omitempty"`
	MedicalConditions     *string        `json:"medical_conditions,omitempty"`
	AutoBillingEnabled    bool           `json:"auto_billing_enabled"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// MemberPatch is a partial member update.  Only non-nil fields are applied.
type MemberPatch struct {
	FirstName             *string         `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName              *string         `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email                 *string         `json:"email" validate:"omitempty,email"`
	Phone                 *string         `json:"phone" validate:"omitempty,max=40"`
	DateOfBirth           *time.Time      `json:"date_of_birth"`
	MembershipType        *MembershipType `json:"membership_type"`
	Status                *MemberStatus   `json:"status"`
	EmergencyContactName  *string         `json:"emergency_contact_name"`
	EmergencyContactPhone *string         `json:"emergency_contact_phone"`
	MedicalConditions     *string         `json:"medical_conditions"`
	AutoBillingEnabled    *bool           `json:"auto_billing_enabled"`
}

// Validate checks the enum fields that struct tags cannot express.
func (p MemberPatch) Validate() error {
	if p.MembershipType != nil && !p.MembershipType.Valid() {
		return &FieldError{Field: "membership_type", Reason: "must be one of basic, premium, vip"}
	}
	if p.Status != nil && !p.Status.Valid() {
		return &FieldError{Field: "status", Reason: "must be one of active, inactive, expired, suspended"}
	}
	return nil
}

// Apply copies every set field onto m.  The email is normalised the same
// way it is at creation.
func (p MemberPatch) Apply(m *Member) {
	if p.FirstName != nil {
		m.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		m.LastName = *p.LastName
	}
	if p.Email != nil {
		m.Email = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		m.Phone = *p.Phone
	}
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		m.DateOfBirth = &dob
	}
	if p.MembershipType != nil {
		m.MembershipType = *p.MembershipType
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.EmergencyContactName != nil {
		v := *p.EmergencyContactName
		m.EmergencyContactName = &v
	}
	if p.EmergencyContactPhone != nil {
		v := *p.EmergencyContactPhone
		m.EmergencyContactPhone = &v
	}
	if p.MedicalConditions != nil {
		v := *p.MedicalConditions
		m.MedicalConditions = &v
	}
	if p.AutoBillingEnabled != nil {
		m.AutoBillingEnabled = *p.AutoBillingEnabled
	}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FieldError reports a single invalid input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

package model

import "time"

// Owner is a gym account and the tenant boundary for every other record.
// Email is stored lower-cased and trimmed; it is unique across all owners.
// PasswordHash never leaves the server.
type Owner struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	GymName           string     `json:"gym_name"`
	CreatedAt         time.Time  `json:"created_at"`
	PasswordChangedAt *time.Time `json:"-"`
}

// Profile holds the editable gym details shown in the dashboard header.
// One row exists per owner and is provisioned empty at registration.
type Profile struct {
	OwnerID   string    `json:"owner_id"`
	GymName   string    `json:"gym_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Website   string    `json:"website"`
	Timezone  string    `json:"timezone"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfilePatch is a partial profile update; nil fields are left unchanged.
type ProfilePatch struct {
	GymName  *string `json:"gym_name" validate:"omitempty,min=1,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Website  *string `json:"website" validate:"omitempty,max=255"`
	Timezone *string `json:"timezone" validate:"omitempty,max=64"`
}

// Apply copies every set field of the patch onto p.
func (pp ProfilePatch) Apply(p *Profile) {
	if pp.GymName != nil {
		p.GymName = *pp.GymName
	}
	if pp.Phone != nil {
		p.Phone = *pp.Phone
	}
	if pp.Address != nil {
		p.Address = *pp.Address
	}
	if pp.Website != nil {
		p.Website = *pp.Website
	}
	if pp.Timezone != nil {
		p.Timezone = *pp.Timezone
	}
}

// PasswordReset tracks a single-use reset token.  Rows are kept after use
// so a replayed token keeps failing.
type PasswordReset struct {
	ID        string
	OwnerID   string
	JTI       string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
	UsedAt    *time.Time
}

// Usable reports whether the record still authorises a reset at now.
func (r PasswordReset) Usable(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}

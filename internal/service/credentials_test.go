package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestCredentials() (*Credentials, *fakeOwners, *fakeProfiles) {
	owners := newFakeOwners()
	profiles := &fakeProfiles{}
	s, err := NewCredentials(owners, profiles, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return s, owners, profiles
}

func TestNewCredentials_DummyMatchesCost(t *testing.T) {
	const cost = bcrypt.MinCost + 1
	s, err := NewCredentials(newFakeOwners(), &fakeProfiles{}, cost)
	if err != nil {
		t.Fatal(err)
	}
	got, err := bcrypt.Cost(s.dummyHash)
	if err != nil {
		t.Fatal(err)
	}
	if got != cost {
		t.Fatalf("dummy cost = %d, want configured %d", got, cost)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), cost)
	if real, _ := bcrypt.Cost(hash); real != got {
		t.Fatalf("unknown-account check cost %d differs from a real hash's %d", got, real)
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	s, _, profiles := newTestCredentials()

	owner, err := s.Register(ctx, "  Owner@Gym.COM ", "secret1", " Iron Temple ")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if owner.Email != "owner@gym.com" {
		t.Errorf("email = %q, want normalised", owner.Email)
	}
	if owner.GymName != "Iron Temple" {
		t.Errorf("gym = %q", owner.GymName)
	}
	if owner.PasswordHash == "secret1" || owner.PasswordHash == "" {
		t.Errorf("password not hashed")
	}
	if profiles.ensured[owner.ID] != "Iron Temple" {
		t.Errorf("default profile not provisioned")
	}

	if _, err := s.Register(ctx, "OWNER@gym.com", "other12", "Other Gym"); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate register err = %v, want ErrConflict", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newTestCredentials()
	tests := []struct {
		name, email, password, gym string
	}{
		{"empty email", "", "secret1", "Gym"},
		{"empty gym", "a@b.com", "secret1", "  "},
		{"password too long", "a@b.com", strings.Repeat("x", 73), "Gym"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Register(context.Background(), tt.email, tt.password, tt.gym); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestCredentials()
	owner, err := s.Register(ctx, "owner@gym.com", "secret1", "Iron Temple")
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Authenticate(ctx, "OWNER@gym.com", "secret1", "")
	if err != nil || got.ID != owner.ID {
		t.Fatalf("Authenticate = %v, %v", got, err)
	}
	if _, err := s.Authenticate(ctx, "owner@gym.com", "secret1", " iron temple "); err != nil {
		t.Errorf("gym name match should be case-insensitive: %v", err)
	}

	tests := []struct {
		name, email, password, gym string
	}{
		{"wrong password", "owner@gym.com", "nope", ""},
		{"unknown email", "ghost@gym.com", "secret1", ""},
		{"wrong gym", "owner@gym.com", "secret1", "Other Gym"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Authenticate(ctx, tt.email, tt.password, tt.gym)
			if err != ErrUnauthorized {
				t.Errorf("err = %v, want exactly ErrUnauthorized", err)
			}
		})
	}
}

func TestFindByEmail(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestCredentials()
	if _, err := s.FindByEmail(ctx, "none@gym.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.Register(ctx, "owner@gym.com", "secret1", "Gym"); err != nil {
		t.Fatal(err)
	}
	if o, err := s.FindByEmail(ctx, " Owner@Gym.com"); err != nil || o.Email != "owner@gym.com" {
		t.Errorf("FindByEmail = %v, %v", o, err)
	}
}

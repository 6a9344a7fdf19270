package database

import (
	"io/fs"
	"strings"
	"testing"
	"time"
)

func TestMigrate_EmptyURL(t *testing.T) {
	if err := Migrate("", "up"); err == nil {
		t.Fatal("Migrate with empty url should return error")
	}
}

func TestMigrate_InvalidDirection(t *testing.T) {
	for _, dir := range []string{"", "sideways", "UP", "Down"} {
		t.Run(dir, func(t *testing.T) {
			err := Migrate("mysql://u@tcp(localhost:3306)/gym", dir)
			if err == nil {
				t.Fatalf("direction %q should be rejected", dir)
			}
			if !strings.Contains(err.Error(), "direction") {
				t.Errorf("error %q should mention direction", err)
			}
		})
	}
}

func TestMigrationFS_Paired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	if len(ups) == 0 {
		t.Fatal("no up migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
}

func TestInitMigration_TenantIndexes(t *testing.T) {
	b, err := fs.ReadFile(migrationFS, "migrations/0001_init.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	sql := string(b)
	for _, want := range []string{
		"UNIQUE KEY uq_owners_email (email)",
		"UNIQUE KEY uq_members_owner_email (owner_id, email)",
		"UNIQUE KEY uq_payment_transactions_ref (gateway, gateway_ref)",
		"UNIQUE KEY uq_attendance_open (owner_id, member_id, attendance_date, open_slot)",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func TestPoolDefaults(t *testing.T) {
	tests := []struct {
		in   Pool
		want Pool
	}{
		{Pool{}, Pool{MaxOpen: 25, MaxIdle: 25, MaxLifetime: 30 * time.Minute}},
		{Pool{MaxOpen: 10, MaxIdle: 50}, Pool{MaxOpen: 10, MaxIdle: 10, MaxLifetime: 30 * time.Minute}},
		{Pool{MaxOpen: 40, MaxIdle: 5, MaxLifetime: time.Minute}, Pool{MaxOpen: 40, MaxIdle: 5, MaxLifetime: time.Minute}},
	}
	for _, tt := range tests {
		if got := tt.in.withDefaults(); got != tt.want {
			t.Fatalf("withDefaults(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestLedgerMigration_DropsMemberCascade(t *testing.T) {
	b, err := fs.ReadFile(migrationFS, "migrations/0002_keep_ledger_on_member_delete.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	sql := string(b)
	for _, want := range []string{
		"ALTER TABLE payments DROP FOREIGN KEY fk_payments_member",
		"ALTER TABLE payment_transactions DROP FOREIGN KEY fk_payment_transactions_member",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("migration missing %q", want)
		}
	}
	if strings.Contains(sql, "CASCADE") {
		t.Error("ledger tables must not cascade member deletes")
	}
}

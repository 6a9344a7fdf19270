package config

import (
	"context"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "gym")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_NAME", "gymdb")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REVOCATION_STORE", "")
}

func TestLoadReportsAllMissing(t *testing.T) {
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
		t.Setenv(k, "")
	}
	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded without required vars")
	}
	for _, k := range []string{"DB_USER", "DB_HOST", "DB_NAME", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), k) {
			t.Fatalf("error %q does not name %s", err, k)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
	t.Setenv("RESET_TOKEN_TTL_MIN", "")
	t.Setenv("FRONTEND_URL", "https://app.example.com/")
	t.Setenv("STRIPE_SUCCESS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AccessTTL() != 0 {
		t.Fatalf("AccessTTL = %v, want 0", cfg.AccessTTL())
	}
	if cfg.ResetTTL() != 20*time.Minute {
		t.Fatalf("ResetTTL = %v", cfg.ResetTTL())
	}
	if cfg.FrontendURL != "https://app.example.com" {
		t.Fatalf("FrontendURL = %q", cfg.FrontendURL)
	}
	if !strings.HasPrefix(cfg.Stripe.SuccessURL, "https://app.example.com/") {
		t.Fatalf("SuccessURL = %q", cfg.Stripe.SuccessURL)
	}
}

func TestResetTTLClamped(t *testing.T) {
	for in, want := range map[string]time.Duration{"5": 20 * time.Minute, "25": 25 * time.Minute, "90": 30 * time.Minute} {
		t.Run(in, func(t *testing.T) {
			setRequired(t)
			t.Setenv("RESET_TOKEN_TTL_MIN", in)
			cfg, err := Load()
			if err != nil {
				t.Fatal(err)
			}
			if cfg.ResetTTL() != want {
				t.Fatalf("ResetTTL = %v, want %v", cfg.ResetTTL(), want)
			}
		})
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string][2]string{
		"bad int":              {"ACCESS_TOKEN_TTL_MIN", "soon"},
		"bcrypt cost":          {"BCRYPT_COST", "2"},
		"reset url in prod":    {"SHOW_RESET_URL_IN_RESPONSE", "true"},
		"non positive max age": {"SESSION_MAX_AGE", "-1h"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("APP_ENV", "prod")
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s accepted", kv[0], kv[1])
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := Config{DBUser: "u", DBPass: "p", DBHost: "db", DBPort: "3306", DBName: "gym"}
	want := "u:p@tcp(db:3306)/gym?charset=utf8mb4&parseTime=true&loc=UTC"
	if c.DSN() != want {
		t.Fatalf("DSN = %q", c.DSN())
	}
	if !strings.HasPrefix(c.MigrateURL(), "mysql://u:p@tcp(db:3306)/gym?") || !strings.HasSuffix(c.MigrateURL(), "&multiStatements=true") {
		t.Fatalf("MigrateURL = %q", c.MigrateURL())
	}
}

func TestRateLimitDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("Capacity = %d", cfg.Capacity)
	}
	if cfg.TTL != 5*time.Second {
		t.Fatalf("TTL = %v", cfg.TTL)
	}
}

func TestRevocationStore(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", RevocationMySQL, false},
		{"mysql", RevocationMySQL, false},
		{"Redis", RevocationRedis, false},
		{"memory", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			setRequired(t)
			t.Setenv("REVOCATION_STORE", tt.in)
			cfg, err := Load()
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "REVOCATION_STORE") {
					t.Fatalf("err = %v, want REVOCATION_STORE error", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.RevocationStore != tt.want {
				t.Errorf("RevocationStore = %q, want %q", cfg.RevocationStore, tt.want)
			}
		})
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Setenv("REDIS_DISABLED", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")

	rdb, err := NewRedisClient(context.Background())
	if err == nil {
		_ = rdb.Close()
		t.Fatal("expected an error for an unreachable redis")
	}
	if rdb != nil {
		t.Fatal("client returned alongside an error")
	}
}

func TestNewRedisClient_Disabled(t *testing.T) {
	t.Setenv("REDIS_DISABLED", "true")
	rdb, err := NewRedisClient(context.Background())
	if rdb != nil || err != nil {
		t.Fatalf("NewRedisClient = %v, %v; want nil, nil", rdb, err)
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	t.Setenv("REDIS_DISABLED", "")
	t.Setenv("REDIS_URL", "http://not-redis")
	if _, err := NewRedisClient(context.Background()); err == nil {
		t.Fatal("expected a parse error")
	}
}

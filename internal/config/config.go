package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Secrets and identifiers are strings, durations
// are parsed up front so callers never deal with raw env values.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	DBAutoMigrate bool   // apply pending migrations at startup

	DBMaxOpenConns    int           // pool size; 0 uses the database package default
	DBMaxIdleConns    int           // idle connections kept; 0 uses the default
	DBConnMaxLifetime time.Duration // recycle connections after this long

	JWTSecret     string        // secret used to sign session and reset tokens
	AccessTTLMin  int           // session token lifetime in minutes; <= 0 issues tokens without exp
	SessionMaxAge time.Duration // upper bound for tokens issued without exp
	BcryptCost    int           // bcrypt cost for password hashing

	ResetTokenTTLMin int    // password reset lifetime in minutes, clamped to [20,30]
	FrontendURL      string // base URL used to build reset links
	ShowResetURL     bool   // echo the reset link in the API response (dev only)

	LogLevel    string   // zerolog level name
	CORSOrigins []string // allowed origins for browser clients

	RabbitURL string // AMQP URL; empty disables the settlement queue

	RevocationStore string        // RevocationMySQL or RevocationRedis
	PurgeInterval   time.Duration // how often expired mysql revocations are deleted

	Stripe   StripeConfig
	Razorpay RazorpayConfig
}

// StripeConfig carries the card gateway credentials.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// Enabled reports whether checkout sessions can be created.
func (s StripeConfig) Enabled() bool { return s.SecretKey != "" }

// RazorpayConfig carries the regional gateway credentials.
type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
}

// Enabled reports whether orders can be created and verified.
func (r RazorpayConfig) Enabled() bool { return r.KeyID != "" && r.KeySecret != "" }

// Revocation stores selectable with REVOCATION_STORE.  The choice is never
// made at runtime: a revoked session must stay revoked across restarts.
const (
	RevocationMySQL = "mysql"
	RevocationRedis = "redis"
)

const (
	minResetTTL = 20
	maxResetTTL = 30
)

// Load reads configuration values from environment variables and returns a
// Config.  Every missing or malformed required variable is reported in a
// single error so a misconfigured deployment fails once with the full list.
func Load() (Config, error) {
	l := &loader{}
	cfg := Config{
		Env:  getenv("APP_ENV", "dev"),
		Port: getenv("APP_PORT", "8080"),

		DBUser:        l.must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        l.must("DB_HOST"),
		DBPort:        getenv("DB_PORT", "3306"),
		DBName:        l.must("DB_NAME"),
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),

		DBMaxOpenConns:    l.intOr("DB_MAX_OPEN_CONNS", 0),
		DBMaxIdleConns:    l.intOr("DB_MAX_IDLE_CONNS", 0),
		DBConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 0),

		JWTSecret:     l.must("JWT_SECRET"),
		AccessTTLMin:  l.intOr("ACCESS_TOKEN_TTL_MIN", 0),
		SessionMaxAge: envDur("SESSION_MAX_AGE", 365*24*time.Hour),
		BcryptCost:    l.intOr("BCRYPT_COST", 12),

		ResetTokenTTLMin: l.intOr("RESET_TOKEN_TTL_MIN", minResetTTL),
		FrontendURL:      strings.TrimRight(getenv("FRONTEND_URL", "http://localhost:3000"), "/"),
		ShowResetURL:     envBool("SHOW_RESET_URL_IN_RESPONSE", false),

		LogLevel:    getenv("LOG_LEVEL", "info"),
		CORSOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),

		RabbitURL: firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),

		RevocationStore: strings.ToLower(getenv("REVOCATION_STORE", RevocationMySQL)),
		PurgeInterval:   envDur("REVOCATION_PURGE_INTERVAL", time.Hour),

		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(getenv("STRIPE_CURRENCY", "usd")),
			SuccessURL:    os.Getenv("STRIPE_SUCCESS_URL"),
			CancelURL:     os.Getenv("STRIPE_CANCEL_URL"),
		},
		Razorpay: RazorpayConfig{
			KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
			WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
			Currency:      strings.ToUpper(getenv("RAZORPAY_CURRENCY", "INR")),
		},
	}
	if err := l.err(); err != nil {
		return Config{}, err
	}

	if cfg.ResetTokenTTLMin < minResetTTL {
		cfg.ResetTokenTTLMin = minResetTTL
	}
	if cfg.ResetTokenTTLMin > maxResetTTL {
		cfg.ResetTokenTTLMin = maxResetTTL
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.SessionMaxAge <= 0 {
		return Config{}, errors.New("config: SESSION_MAX_AGE must be positive")
	}
	if cfg.RevocationStore != RevocationMySQL && cfg.RevocationStore != RevocationRedis {
		return Config{}, fmt.Errorf("config: REVOCATION_STORE must be %s or %s, got %q", RevocationMySQL, RevocationRedis, cfg.RevocationStore)
	}
	if cfg.ShowResetURL && cfg.Env == "prod" {
		return Config{}, errors.New("config: SHOW_RESET_URL_IN_RESPONSE must not be enabled when APP_ENV=prod")
	}
	if cfg.Stripe.SuccessURL == "" {
		cfg.Stripe.SuccessURL = cfg.FrontendURL + "/payments/success?session_id={CHECKOUT_SESSION_ID}"
	}
	if cfg.Stripe.CancelURL == "" {
		cfg.Stripe.CancelURL = cfg.FrontendURL + "/payments/cancel"
	}
	return cfg, nil
}

// DSN builds the MySQL data source name.
// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
func (c Config) DSN() string {
	auth := c.DBUser
	if c.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL is the DSN in the URL form golang-migrate expects.
func (c Config) MigrateURL() string {
	return "mysql://" + c.DSN() + "&multiStatements=true"
}

// AccessTTL returns the session lifetime, or zero when tokens never expire.
func (c Config) AccessTTL() time.Duration {
	if c.AccessTTLMin <= 0 {
		return 0
	}
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// ResetTTL returns the password reset lifetime.
func (c Config) ResetTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLMin) * time.Minute
}

// loader accumulates missing or malformed variables.
type loader struct {
	missing []string
	invalid []string
}

// must retrieves the value of a required environment variable.  Unset or
// empty values are recorded and reported by err().
func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		l.missing = append(l.missing, key)
	}
	return v
}

// intOr is like envInt but records values that fail to parse.
func (l *loader) intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.invalid = append(l.invalid, fmt.Sprintf("%s=%q", key, v))
		return def
	}
	return n
}

func (l *loader) err() error {
	var parts []string
	if len(l.missing) > 0 {
		parts = append(parts, "missing required env vars: "+strings.Join(l.missing, ", "))
	}
	if len(l.invalid) > 0 {
		parts = append(parts, "invalid int values: "+strings.Join(l.invalid, ", "))
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New("config: " + strings.Join(parts, "; "))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Connection and secret values are required;
// circulation policy knobs fall back to the library's defaults so a bare
// environment still yields a working policy.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Circulation policy.  LoanPeriodDays drives both the initial due
	// date and the renewal extension.  RenewBlockWhenHeld rejects a
	// renewal when another member is waiting on the title.  MaxRenewals
	// caps renewals per loan (0 = unlimited).  FinePerDayCents and
	// FineOnReturn control the overdue assessment hook on return.
	LoanPeriodDays     int
	RenewBlockWhenHeld bool
	MaxRenewals        int
	FinePerDayCents    int64
	FineOnReturn       bool
}

// Load reads configuration values from environment variables and returns
// a Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		LoanPeriodDays:     envInt("LOAN_PERIOD_DAYS", 14),
		RenewBlockWhenHeld: envBool("RENEW_BLOCK_WHEN_HELD", true),
		MaxRenewals:        envInt("MAX_RENEWALS", 0),
		FinePerDayCents:    int64(envInt("FINE_PER_DAY_CENTS", 50)),
		FineOnReturn:       envBool("FINE_ON_RETURN", true),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.  If conversion fails, the application logs a fatal error and
// exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// PlaceholderSupabaseURL and PlaceholderSupabaseKey mark an unconfigured deployment.
	PlaceholderSupabaseURL = "https://placeholder.supabase.co"
	PlaceholderSupabaseKey = "placeholder-key"

	DefaultOrganizationID = "5409038b-9dbc-4b63-b17d-a5f90932efc4"
	MinimumPasswordLength = 6
)

// TestDomains are the email suffixes routed to the local fallback store.
var TestDomains = []string{"@ltms.test", "@test.com"}

// IsTestEmail reports whether email belongs to a reserved test domain.
func IsTestEmail(email string) bool {
	email = CleanString(email, true /* lower */)
	for _, domain := range TestDomains {
		if strings.HasSuffix(email, domain) {
			return true
		}
	}
	return false
}

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		WorkDir  string

		SecretKey        string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string
		Build            string
		Tracing          bool

		SupabaseURL     string
		SupabaseAnonKey string
		RequestTimeout  time.Duration

		// AuthProvider is one of supabase, local or none.
		AuthProvider string
		// Backend is one of supabase, sql or memory.
		Backend string

		OTPTTL        time.Duration
		OTPLength     int
		OTPAttempts   int
		SessionTTL    time.Duration
		SignUpLatency time.Duration
		// SkipVerification signs remote accounts up without emailing a one-time code.
		SkipVerification bool

		Database DatabaseConfig
		Prefs    PrefsConfig
	}

	DatabaseConfig struct {
		Engine string // postgres | sqlite3
		DSN    string
	}

	PrefsConfig struct {
		Driver   string // sqlite | redis | memory
		Path     string
		RedisURL string
	}
)

// RemoteConfigured reports whether a real Supabase project is configured.
// When it returns false every remote call is expected to fail and the local fallback store is used instead.
func (c *Config) RemoteConfigured() bool {
	url := CleanString(c.SupabaseURL)
	key := CleanString(c.SupabaseAnonKey)
	if url == "" || key == "" {
		return false
	}
	return url != PlaceholderSupabaseURL && key != PlaceholderSupabaseKey
}

// NewConfig loads the configuration from defaults, an optional dotenv file and the environment.
// Environment variables are prefixed with the ENV value, e.g. DEV_SUPABASEURL.
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "LTMS")
	v.SetDefault("secretKey", "q8#v2k$w9m!r4t&z7x@c1b%n5h^j3l*p")
	v.SetDefault("defaultFromEmail", "noreply@ltms.local")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("build", "dev")
	v.SetDefault("tracing", false)
	v.SetDefault("supabaseURL", PlaceholderSupabaseURL)
	v.SetDefault("supabaseAnonKey", PlaceholderSupabaseKey)
	v.SetDefault("requestTimeout", 30*time.Second)
	v.SetDefault("authProvider", "supabase")
	v.SetDefault("backend", "supabase")
	v.SetDefault("otpTTL", 10*time.Minute)
	v.SetDefault("otpLength", 6)
	v.SetDefault("otpAttempts", 5)
	v.SetDefault("sessionTTL", 7*24*time.Hour)
	v.SetDefault("signUpLatency", time.Second)
	v.SetDefault("skipVerification", false)
	v.SetDefault("database.engine", "sqlite3")
	v.SetDefault("database.dsn", "ltms.db")
	v.SetDefault("prefs.driver", "sqlite")
	v.SetDefault("prefs.path", "ltms-prefs.db")
	v.SetDefault("prefs.redisURL", "redis://localhost:6379/0")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("signUpLatency", time.Duration(0))
		v.SetDefault("prefs.driver", "memory")
		v.SetDefault("backend", "memory")
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing defaultFromEmail")
	}

	return &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		WorkDir:          workDir,
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: *from,
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Build:            v.GetString("build"),
		Tracing:          v.GetBool("tracing"),
		SupabaseURL:      strings.TrimRight(v.GetString("supabaseURL"), "/"),
		SupabaseAnonKey:  v.GetString("supabaseAnonKey"),
		RequestTimeout:   v.GetDuration("requestTimeout"),
		AuthProvider:     strings.ToLower(v.GetString("authProvider")),
		Backend:          strings.ToLower(v.GetString("backend")),
		OTPTTL:           v.GetDuration("otpTTL"),
		OTPLength:        v.GetInt("otpLength"),
		OTPAttempts:      v.GetInt("otpAttempts"),
		SessionTTL:       v.GetDuration("sessionTTL"),
		SignUpLatency:    v.GetDuration("signUpLatency"),
		SkipVerification: v.GetBool("skipVerification"),
		Database: DatabaseConfig{
			Engine: v.GetString("database.engine"),
			DSN:    v.GetString("database.dsn"),
		},
		Prefs: PrefsConfig{
			Driver:   strings.ToLower(v.GetString("prefs.driver")),
			Path:     v.GetString("prefs.path"),
			RedisURL: v.GetString("prefs.redisURL"),
		},
	}, nil
}

// Getwd returns the module root (the closest parent holding a go.mod) or the working directory.
// go test runs in the package directory, which breaks relative config paths.
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}

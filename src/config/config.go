package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverRemote = "remote"
)

const minJWTSecretLength = 32

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port      string
	LogLevel  string
	LogFormat string

	// Storage settings
	StoreDriver   string
	DatabasePath  string
	RemoteURL     string
	RemoteAPIKey  string
	RemoteTimeout time.Duration

	// Security settings
	JWTSecret          string
	CSRFAuthKey        []byte
	OAuthStateString   string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	AllowedOrigins     []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Routing
	AuthEntryPath string
	DashboardPath string

	// Presentation
	Currency   string
	DateLayout string
	NoticeTTL  time.Duration

	// Google OAuth settings
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *AppConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file
// and stores it in Cfg. It terminates the process on invalid configuration.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	cfg, err := Load(os.LookupEnv)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	Cfg = cfg

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, StoreDriver=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.StoreDriver)
}

// Load builds an AppConfig from the given lookup function.
func Load(lookup func(string) (string, bool)) (*AppConfig, error) {
	e := env{lookup: lookup}

	apiBaseURL := e.get("API_BASE_URL", "http://localhost:8080")

	cfg := &AppConfig{
		Port:      e.get("PORT", "8080"),
		LogLevel:  e.get("LOG_LEVEL", "info"),
		LogFormat: e.get("LOG_FORMAT", "json"),

		StoreDriver:   strings.ToLower(e.get("STORE_DRIVER", DriverSQLite)),
		DatabasePath:  e.get("DATABASE_PATH", "./stockfolio.db"),
		RemoteURL:     strings.TrimRight(e.get("REMOTE_URL", ""), "/"),
		RemoteAPIKey:  e.get("REMOTE_API_KEY", ""),
		RemoteTimeout: e.duration("REMOTE_TIMEOUT", 15*time.Second),

		JWTSecret:          e.get("JWT_SECRET", ""),
		CSRFAuthKey:        []byte(e.get("CSRF_AUTH_KEY", "")),
		OAuthStateString:   e.get("OAUTH_STATE_STRING", "stockfolio-dev-state"),
		AccessTokenExpiry:  e.duration("ACCESS_TOKEN_EXPIRY", 60*time.Minute),
		RefreshTokenExpiry: e.duration("REFRESH_TOKEN_EXPIRY", 168*time.Hour),
		AllowedOrigins:     e.list("ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
		RateLimitRPS:       e.float("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     e.int("RATE_LIMIT_BURST", 30),

		AuthEntryPath: e.get("AUTH_ENTRY_PATH", "/auth"),
		DashboardPath: e.get("DASHBOARD_PATH", "/dashboard"),

		Currency:   strings.ToUpper(e.get("CURRENCY", "USD")),
		DateLayout: e.get("DATE_LAYOUT", "Jan 2, 2006 3:04 PM"),
		NoticeTTL:  e.duration("NOTICE_TTL", time.Minute),

		GoogleClientID:     e.get("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: e.get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  e.get("GOOGLE_REDIRECT_URL", apiBaseURL+"/auth/google/callback"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreDriver {
	case DriverSQLite:
		if len(c.JWTSecret) < minJWTSecretLength {
			return fmt.Errorf("JWT_SECRET must be at least %d characters for the %s driver", minJWTSecretLength, DriverSQLite)
		}
	case DriverRemote:
		if c.RemoteURL == "" || c.RemoteAPIKey == "" {
			return errors.New("REMOTE_URL and REMOTE_API_KEY are required for the remote driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if len(c.CSRFAuthKey) == 0 {
		log.Println("WARNING: CSRF_AUTH_KEY not set. Set this in production.")
	}
	return nil
}

type env struct {
	lookup func(string) (string, bool)
}

// get retrieves an environment variable or returns a fallback value.
func (e env) get(key, fallback string) string {
	if value, exists := e.lookup(key); exists {
		return value
	}
	return fallback
}

func (e env) int(key string, fallback int) int {
	valueStr := e.get(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func (e env) float(key string, fallback float64) float64 {
	valueStr := e.get(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil && value > 0 {
		return value
	}
	log.Printf("Invalid number value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func (e env) duration(key string, fallback time.Duration) time.Duration {
	valueStr := e.get(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// list parses a comma-separated value, dropping blanks.
func (e env) list(key string, fallback []string) []string {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

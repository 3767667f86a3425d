package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// OIDCProviderConfig describes one generic OpenID Connect provider whose ID
// tokens are accepted on the OAuth login endpoint.
type OIDCProviderConfig struct {
	Name      string // auth provider name, e.g. MICROSOFT
	IssuerURL string
	ClientID  string
}

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	StoreDriver    string
	RunMigrations  bool
	MigrationsPath string

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// Refresh Token Config
	RefreshTokenExpiryDuration time.Duration
	RefreshTokenMaxActive      int
	RefreshTokenRotation       bool
	RefreshTokenReuseDetection bool
	RefreshTokenCookieName     string
	RefreshTokenCookiePath     string
	RefreshTokenCookieDomain   string
	RefreshTokenCookieSecure   bool

	// Janitor
	TokenCleanupInterval  time.Duration
	TokenCleanupOnStart   bool
	RevokedTokenRetention time.Duration

	// External OAuth Providers
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OIDCProviders      []OIDCProviderConfig

	CORSAllowedOrigins []string
	AuthRateLimit      string
	PosthogAPIKey      string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("JWT_EXPIRY_DURATION", "15m")
	v.SetDefault("JWT_ISSUER", "storefront-auth")
	v.SetDefault("REFRESH_TOKEN_EXPIRY_DURATION", "168h")
	v.SetDefault("REFRESH_TOKEN_MAX_ACTIVE", 5)
	v.SetDefault("REFRESH_TOKEN_ROTATION_ENABLED", true)
	v.SetDefault("REFRESH_TOKEN_REUSE_DETECTION", false)
	v.SetDefault("REFRESH_TOKEN_COOKIE_NAME", "refreshToken")
	v.SetDefault("REFRESH_TOKEN_COOKIE_PATH", "/api/v1/auth")
	v.SetDefault("REFRESH_TOKEN_COOKIE_DOMAIN", "")
	v.SetDefault("REFRESH_TOKEN_COOKIE_SECURE", false)
	v.SetDefault("TOKEN_CLEANUP_INTERVAL", "24h")
	v.SetDefault("TOKEN_CLEANUP_ON_START", true)
	v.SetDefault("REVOKED_TOKEN_RETENTION", "720h")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "")
	v.SetDefault("OIDC_PROVIDERS", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTH_RATE_LIMIT", "20-M")
	v.SetDefault("POSTHOG_API_KEY", "")

	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:                v.GetString("PGSQL_URL"),
		Port:                       v.GetString("PORT"),
		IsProduction:               v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:              v.GetBool("ENABLE_DB_CHECK"),
		StoreDriver:                strings.ToLower(v.GetString("STORE_DRIVER")),
		RunMigrations:              v.GetBool("RUN_MIGRATIONS"),
		MigrationsPath:             v.GetString("MIGRATIONS_PATH"),
		JWTSecret:                  v.GetString("JWT_SECRET"),
		JWTIssuer:                  v.GetString("JWT_ISSUER"),
		RefreshTokenMaxActive:      v.GetInt("REFRESH_TOKEN_MAX_ACTIVE"),
		RefreshTokenRotation:       v.GetBool("REFRESH_TOKEN_ROTATION_ENABLED"),
		RefreshTokenReuseDetection: v.GetBool("REFRESH_TOKEN_REUSE_DETECTION"),
		RefreshTokenCookieName:     v.GetString("REFRESH_TOKEN_COOKIE_NAME"),
		RefreshTokenCookiePath:     v.GetString("REFRESH_TOKEN_COOKIE_PATH"),
		RefreshTokenCookieDomain:   v.GetString("REFRESH_TOKEN_COOKIE_DOMAIN"),
		RefreshTokenCookieSecure:   v.GetBool("REFRESH_TOKEN_COOKIE_SECURE"),
		TokenCleanupOnStart:        v.GetBool("TOKEN_CLEANUP_ON_START"),
		GoogleClientID:             v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:         v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:          v.GetString("GOOGLE_REDIRECT_URL"),
		CORSAllowedOrigins:         splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		AuthRateLimit:              v.GetString("AUTH_RATE_LIMIT"),
		PosthogAPIKey:              v.GetString("POSTHOG_API_KEY"),
	}

	cfg.JWTExpiryDuration = durationOrDefault(v, "JWT_EXPIRY_DURATION", 15*time.Minute)
	cfg.RefreshTokenExpiryDuration = durationOrDefault(v, "REFRESH_TOKEN_EXPIRY_DURATION", 7*24*time.Hour)
	cfg.TokenCleanupInterval = durationOrDefault(v, "TOKEN_CLEANUP_INTERVAL", 24*time.Hour)
	cfg.RevokedTokenRetention = durationOrDefault(v, "REVOKED_TOKEN_RETENTION", 30*24*time.Hour)

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DefaultJWTSecret
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	if cfg.RefreshTokenMaxActive <= 0 {
		log.Printf("Warning: REFRESH_TOKEN_MAX_ACTIVE must be positive, got %d. Defaulting to 5.\n", cfg.RefreshTokenMaxActive)
		cfg.RefreshTokenMaxActive = 5
	}
	if cfg.StoreDriver == StoreDriverPostgres && cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.GoogleClientID == "" {
		log.Println("Warning: GOOGLE_CLIENT_ID not set. Google OAuth will not function.")
	}

	providers, err := ParseOIDCProviders(v.GetString("OIDC_PROVIDERS"))
	if err != nil {
		return nil, err
	}
	cfg.OIDCProviders = providers

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that must not boot.
func (c *Config) Validate() error {
	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory {
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.IsProduction {
		if c.JWTSecret == DefaultJWTSecret {
			return errors.New("JWT_SECRET must be set in production")
		}
		if c.StoreDriver == StoreDriverMemory {
			return errors.New("STORE_DRIVER=memory is not allowed in production")
		}
	}
	if c.TokenCleanupInterval <= 0 {
		return errors.New("TOKEN_CLEANUP_INTERVAL must be positive")
	}
	return nil
}

// CookieSecure reports whether the refresh token cookie carries the Secure flag.
func (c *Config) CookieSecure() bool {
	return c.IsProduction || c.RefreshTokenCookieSecure
}

// ParseOIDCProviders parses a comma separated list of NAME=issuer|clientID entries.
func ParseOIDCProviders(raw string) ([]OIDCProviderConfig, error) {
	var out []OIDCProviderConfig
	for _, entry := range splitList(raw) {
		name, rest, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid OIDC_PROVIDERS entry %q: expected NAME=issuer|clientID", entry)
		}
		issuer, clientID, ok := strings.Cut(rest, "|")
		if !ok || issuer == "" || clientID == "" {
			return nil, fmt.Errorf("invalid OIDC_PROVIDERS entry %q: expected NAME=issuer|clientID", entry)
		}
		out = append(out, OIDCProviderConfig{
			Name:      strings.ToUpper(strings.TrimSpace(name)),
			IssuerURL: strings.TrimSpace(issuer),
			ClientID:  strings.TrimSpace(clientID),
		})
	}
	return out, nil
}

func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

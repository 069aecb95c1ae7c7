package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	JWTSecret         string
	AllowEphemeralJWT bool

	BcryptCost int

	TokenTTL       time.Duration
	SessionTTL     time.Duration
	SessionIdleTTL time.Duration

	FailedThreshold int
	LockoutDuration time.Duration

	AuthRateLimitMax       int
	AuthRateLimitWindow    time.Duration
	GeneralRateLimitMax    int
	GeneralRateLimitWindow time.Duration

	SessionCookieName string
	CookieSecure      bool

	MaxDBConns int32
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL string `yaml:"postgres_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Security struct {
		JWTSecret         string `yaml:"jwt_secret"`
		SessionCookieName string `yaml:"session_cookie_name"`
		CookieSecure      *bool  `yaml:"cookie_secure"`
	} `yaml:"security"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:              "auth-service",
		HTTPPort:               8080,
		GRPCPort:               9090,
		AllowEphemeralJWT:      true,
		BcryptCost:             10,
		TokenTTL:               24 * time.Hour,
		SessionTTL:             24 * time.Hour,
		SessionIdleTTL:         24 * time.Hour,
		FailedThreshold:        5,
		LockoutDuration:        24 * time.Hour,
		AuthRateLimitMax:       5,
		AuthRateLimitWindow:    15 * time.Minute,
		GeneralRateLimitMax:    100,
		GeneralRateLimitWindow: 15 * time.Minute,
		SessionCookieName:      "sid",
		CookieSecure:           true,
		MaxDBConns:             20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Security.JWTSecret != "" {
			cfg.JWTSecret = f.Security.JWTSecret
		}
		if f.Security.SessionCookieName != "" {
			cfg.SessionCookieName = f.Security.SessionCookieName
		}
		if f.Security.CookieSecure != nil {
			cfg.CookieSecure = *f.Security.CookieSecure
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.AllowEphemeralJWT = envBool("JWT_ALLOW_EPHEMERAL", cfg.AllowEphemeralJWT)
	cfg.SessionCookieName = envOrDefault("SESSION_COOKIE_NAME", cfg.SessionCookieName)
	cfg.CookieSecure = envBool("COOKIE_SECURE", cfg.CookieSecure)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)
	cfg.FailedThreshold = envInt("FAILED_LOGIN_THRESHOLD", cfg.FailedThreshold)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_HOURS", int(cfg.TokenTTL.Hours()))) * time.Hour
	cfg.SessionTTL = time.Duration(envInt("SESSION_EXPIRY_HOURS", int(cfg.SessionTTL.Hours()))) * time.Hour
	cfg.SessionIdleTTL = time.Duration(envInt("SESSION_IDLE_HOURS", int(cfg.SessionIdleTTL.Hours()))) * time.Hour
	cfg.LockoutDuration = time.Duration(envInt("ACCOUNT_LOCKOUT_HOURS", int(cfg.LockoutDuration.Hours()))) * time.Hour

	cfg.AuthRateLimitMax = envInt("AUTH_RATE_LIMIT_MAX", cfg.AuthRateLimitMax)
	cfg.AuthRateLimitWindow = time.Duration(envInt("AUTH_RATE_LIMIT_WINDOW_MINUTES", int(cfg.AuthRateLimitWindow.Minutes()))) * time.Minute
	cfg.GeneralRateLimitMax = envInt("API_RATE_LIMIT_MAX", cfg.GeneralRateLimitMax)
	cfg.GeneralRateLimitWindow = time.Duration(envInt("API_RATE_LIMIT_WINDOW_MINUTES", int(cfg.GeneralRateLimitWindow.Minutes()))) * time.Minute

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTSecret == "" && !cfg.AllowEphemeralJWT {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	if cfg.FailedThreshold < 1 {
		return Config{}, fmt.Errorf("FAILED_LOGIN_THRESHOLD must be >= 1")
	}
	if cfg.AuthRateLimitMax < 1 || cfg.GeneralRateLimitMax < 1 {
		return Config{}, fmt.Errorf("rate limit maximums must be >= 1")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envBool parses common boolean env forms while keeping a deterministic fallback.
func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

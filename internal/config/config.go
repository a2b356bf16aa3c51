package config

import (
	"encoding/base64"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	SigningKey       string
	SigningKeyBase64 string
	TokenTTL         string
	TokenIssuer      string

	StoreTimeoutMS int

	AuthzMode        string
	RoutePolicyPath  string
	PolicyBundlePath string

	LoginRateLimit         int
	LoginRateWindowSeconds int
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

const (
	AuthzModeTable = "table"
	AuthzModeRego  = "rego"
)

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		SigningKey:             os.Getenv("SIGNING_KEY"),
		SigningKeyBase64:       os.Getenv("SIGNING_KEY_BASE64"),
		TokenTTL:               envDefault("TOKEN_TTL", "10h"),
		TokenIssuer:            envDefault("TOKEN_ISSUER", "palisade"),
		StoreTimeoutMS:         envIntDefault("STORE_TIMEOUT_MS", 2000),
		AuthzMode:              envDefault("AUTHZ_MODE", AuthzModeTable),
		RoutePolicyPath:        os.Getenv("ROUTE_POLICY_PATH"),
		PolicyBundlePath:       os.Getenv("POLICY_BUNDLE_PATH"),
		LoginRateLimit:         envIntDefault("LOGIN_RATE_LIMIT", 0),
		LoginRateWindowSeconds: envIntDefault("LOGIN_RATE_WINDOW_SECONDS", 60),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
	}
}

// SigningKeyBytes resolves the process-wide token signing key. The
// base64 form wins when both are set.
func (c Config) SigningKeyBytes() ([]byte, error) {
	if c.SigningKeyBase64 != "" {
		return base64.StdEncoding.DecodeString(c.SigningKeyBase64)
	}
	return []byte(c.SigningKey), nil
}

// TokenTTLDuration falls back to 10h when TOKEN_TTL does not parse.
func (c Config) TokenTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TokenTTL)
	if err != nil || d <= 0 {
		return 10 * time.Hour
	}
	return d
}

func (c Config) StoreTimeout() time.Duration {
	if c.StoreTimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

func (c Config) LoginRateWindow() time.Duration {
	if c.LoginRateWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.LoginRateWindowSeconds) * time.Second
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/bomber/internal/auth"
	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Account backends selectable with ACCOUNTS_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config is the process configuration read from the environment.
type Config struct {
	Env      string
	Port     string
	LogLevel logrus.Level

	AccountsBackend string
	DatabaseURL     string
	SQLitePath      string

	// RedisAddr empty disables the Redis ranking.
	RedisAddr string
	RedisDB   int

	TokenExpire time.Duration
	// Both key paths set loads a persistent ed25519 key pair; otherwise a
	// fresh pair is generated at startup.
	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
}

// Load reads the environment. A .env file is picked up by the
// godotenv autoload import in main.
func Load() (Config, error) {
	cfg := Config{
		Env:             getEnv("BOMBER_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		AccountsBackend: getEnv("ACCOUNTS_BACKEND", BackendMemory),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLitePath:      getEnv("SQLITE_PATH", "./data/bomber.db"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         getEnvInt("REDIS_DB", 0),

		JWTPrivateKeyPath: os.Getenv("JWT_PRIVATE_KEY_PATH"),
		JWTPublicKeyPath:  os.Getenv("JWT_PUBLIC_KEY_PATH"),
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.TokenExpire, err = auth.ParseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return Config{}, err
	}

	if (cfg.JWTPrivateKeyPath == "") != (cfg.JWTPublicKeyPath == "") {
		return Config{}, fmt.Errorf("JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
	}

	switch cfg.AccountsBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("ACCOUNTS_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown ACCOUNTS_BACKEND %q", cfg.AccountsBackend)
	}
	return cfg, nil
}

// Production reports whether BOMBER_ENV is "production".
func (c Config) Production() bool {
	return c.Env == "production"
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.Production() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// NewTokens builds the token issuer from the configured key pair, or a
// fresh one when no paths are set.
func (c Config) NewTokens() (*auth.Tokens, error) {
	if c.JWTPrivateKeyPath != "" {
		return auth.NewTokensFromPath(c.JWTPrivateKeyPath, c.JWTPublicKeyPath, c.TokenExpire)
	}
	return auth.NewTokens(c.TokenExpire)
}

// LoadRules reads a YAML rules file over the defaults. An empty path
// returns the defaults.
func LoadRules(path string) (game.Rules, error) {
	rules := game.DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return game.Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return game.Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return game.Rules{}, fmt.Errorf("invalid rules in %s: %w", path, err)
	}
	return rules, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

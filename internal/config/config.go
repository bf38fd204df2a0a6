package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSecretKey = "dev-secret-key-change-in-production"

// Config stores all configuration of the application.
type Config struct {
	Env string

	// HTTP API
	HTTPAddr    string
	DatabaseURL string
	CORSOrigins []string

	// Auth
	SecretKey   string
	AccessTTL   time.Duration
	BcryptCost  int
	TokenHeader string

	// Bot
	BotToken       string
	APIURL         string
	APITimeout     time.Duration
	BotRemoteCalls int
	BotHistorySize int
}

// Load reads the environment, after merging an optional .env file. Variables
// already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	return &Config{
		Env: getEnv("APP_ENV", "dev"),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		DatabaseURL: getEnv("DATABASE_URL", "hydrocalc.db"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		SecretKey:   getEnv("SECRET_KEY", devSecretKey),
		AccessTTL:   time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 24*60)) * time.Minute,
		BcryptCost:  getEnvAsInt("BCRYPT_COST", 12),
		TokenHeader: getEnv("AUTH_HEADER", "X-Auth-Token"),

		BotToken:       getEnv("BOT_TOKEN", ""),
		APIURL:         strings.TrimRight(getEnv("API_URL", "http://localhost:8000"), "/"),
		APITimeout:     time.Duration(getEnvAsInt("API_TIMEOUT_SECONDS", 10)) * time.Second,
		BotRemoteCalls: getEnvAsInt("BOT_REMOTE_CALLS", 16),
		BotHistorySize: getEnvAsInt("BOT_HISTORY_SIZE", 5),
	}, nil
}

func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

// UsesDevSecret reports whether tokens are signed with the built-in key.
func (c *Config) UsesDevSecret() bool {
	return c.SecretKey == devSecretKey
}

// Validate checks the values needed by the API, and by the bot when forBot is set.
func (c *Config) Validate(forBot bool) error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is empty"))
	}
	if c.AccessTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.TokenHeader == "" {
		errs = append(errs, errors.New("AUTH_HEADER is empty"))
	}
	if forBot {
		if c.BotToken == "" {
			errs = append(errs, errors.New("BOT_TOKEN is not set"))
		}
		if c.BotRemoteCalls <= 0 {
			errs = append(errs, errors.New("BOT_REMOTE_CALLS must be positive"))
		}
		if c.BotHistorySize <= 0 {
			errs = append(errs, errors.New("BOT_HISTORY_SIZE must be positive"))
		}
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort   = 3000
	DefaultDBHost = "localhost"
	DefaultDBPort = "5432"
	DefaultDBName = "todolistDB"
)

type Config struct {
	Port        int
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	DBName      string
	DBSSLMode   string
	DatabaseURL string
	LogLevel    string
}

// Load reads a .env file if one exists, then builds the Config from the
// process environment. It reports whether a .env file was found so the caller
// can log it once the logger is up. Only malformed values are errors; call
// Validate once any flag overrides have been applied.
func Load(envFiles ...string) (Config, bool, error) {
	loaded := godotenv.Load(envFiles...) == nil

	cfg := Config{
		DBUser:      env("DB_USERNAME", ""),
		DBPassword:  env("DB_PASSWORD", ""),
		DBHost:      env("DB_HOST", DefaultDBHost),
		DBPort:      env("DB_PORT", DefaultDBPort),
		DBName:      env("DB_NAME", DefaultDBName),
		DBSSLMode:   env("DB_SSLMODE", "disable"),
		DatabaseURL: env("DATABASE_URL", ""),
		LogLevel:    env("LOG_LEVEL", "info"),
		Port:        DefaultPort,
	}

	if portStr := env("PORT", ""); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, loaded, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	return cfg, loaded, nil
}

// Validate checks the fields that have no usable default. Database
// credentials are only required when requireDB is set.
func (c Config) Validate(requireDB bool) error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if requireDB && c.DatabaseURL == "" && c.DBUser == "" {
		return errors.New("database credentials required (set DB_USERNAME/DB_PASSWORD or DATABASE_URL)")
	}
	return nil
}

// DSN returns the Postgres connection string. DATABASE_URL wins over the
// individual parts.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

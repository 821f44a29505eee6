package dbconfig

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
)

// Config holds Postgres connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// URL, when set, is used as is and the fields above are ignored.
	URL string

	MaxConns        int32 // zero keeps the pgx default
	MaxConnIdleTime time.Duration
}

// NewConfigFromEnv reads DATABASE_URL or the DB_* variables.
func NewConfigFromEnv() Config {
	return Config{
		Host:            config.GetEnv("DB_HOST", "localhost"),
		Port:            config.GetEnvAsInt("DB_PORT", 5432),
		User:            config.GetEnv("DB_USER", "postgres"),
		Password:        config.GetEnv("DB_PASSWORD", "postgres"),
		Database:        config.GetEnv("DB_NAME", "draft"),
		SSLMode:         config.GetEnv("DB_SSLMODE", "disable"),
		URL:             config.GetEnv("DATABASE_URL", ""),
		MaxConns:        int32(config.GetEnvAsInt("DB_MAX_CONNS", 0)),
		MaxConnIdleTime: config.GetEnvAsDuration("DB_MAX_CONN_IDLE", 5*time.Minute),
	}
}

// DSN returns the Postgres connection URL. Credentials are escaped.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// PoolConfig parses the DSN into a pgxpool configuration.
func (c Config) PoolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	return pc, nil
}

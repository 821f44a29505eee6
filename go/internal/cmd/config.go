package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/gateway"
)

// Config is draftd's file configuration. Environment variables win over the file.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Store struct {
		// Driver is postgres or memory.
		Driver      string `yaml:"driver"`
		Migrate     bool   `yaml:"migrate"`
		PlayersFile string `yaml:"players_file"`
	} `yaml:"store"`

	Engine struct {
		InboxSize       int           `yaml:"inbox_size"`
		PersistAttempts int           `yaml:"persist_attempts"`
		PersistTimeout  time.Duration `yaml:"persist_timeout"`
		BackoffBase     time.Duration `yaml:"backoff_base"`
		BackoffMax      time.Duration `yaml:"backoff_max"`
		SubscriberQueue int           `yaml:"subscriber_queue"`
	} `yaml:"engine"`

	Gateway struct {
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		ReadTimeout    time.Duration `yaml:"read_timeout"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxMessageSize int64         `yaml:"max_message_size"`
	} `yaml:"gateway"`
}

func defaultConfig() *Config {
	var c Config
	c.Server.Port = "8080"
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Store.Driver = "postgres"

	e := engine.DefaultConfig()
	c.Engine.InboxSize = e.InboxSize
	c.Engine.PersistAttempts = e.PersistAttempts
	c.Engine.PersistTimeout = e.PersistTimeout
	c.Engine.BackoffBase = e.BackoffBase
	c.Engine.BackoffMax = e.BackoffMax
	c.Engine.SubscriberQueue = broadcast.DefaultConfig().BufferSize

	g := gateway.DefaultConnectionConfig()
	c.Gateway.WriteTimeout = g.WriteTimeout
	c.Gateway.ReadTimeout = g.ReadTimeout
	c.Gateway.PingInterval = g.PingInterval
	c.Gateway.MaxMessageSize = g.MaxMessageSize
	return &c
}

func loadConfig(path string) (*Config, error) {
	c := defaultConfig()
	if err := config.LoadFile(path, c); err != nil {
		return nil, err
	}

	c.Server.Port = config.GetEnv("PORT", c.Server.Port)
	if origins := config.GetEnv("CORS_ORIGINS", ""); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	c.Server.ShutdownTimeout = config.GetEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Store.Driver = config.GetEnv("DRAFTD_STORE", c.Store.Driver)
	c.Store.Migrate = config.GetEnvAsBool("DB_MIGRATE", c.Store.Migrate)
	c.Store.PlayersFile = config.GetEnv("PLAYERS_FILE", c.Store.PlayersFile)
	c.Engine.PersistAttempts = config.GetEnvAsInt("PERSIST_ATTEMPTS", c.Engine.PersistAttempts)
	c.Engine.PersistTimeout = config.GetEnvAsDuration("PERSIST_TIMEOUT", c.Engine.PersistTimeout)

	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return c, nil
}

func (c *Config) engineConfig() engine.Config {
	e := engine.DefaultConfig()
	e.InboxSize = c.Engine.InboxSize
	e.PersistAttempts = c.Engine.PersistAttempts
	e.PersistTimeout = c.Engine.PersistTimeout
	e.BackoffBase = c.Engine.BackoffBase
	e.BackoffMax = c.Engine.BackoffMax
	return e
}

func (c *Config) gatewayConfig() gateway.Config {
	g := gateway.DefaultConfig()
	g.ConnectionConfig.WriteTimeout = c.Gateway.WriteTimeout
	g.ConnectionConfig.ReadTimeout = c.Gateway.ReadTimeout
	g.ConnectionConfig.PingInterval = c.Gateway.PingInterval
	g.ConnectionConfig.MaxMessageSize = c.Gateway.MaxMessageSize
	return g
}

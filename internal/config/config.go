// Package config defines the application configuration and its loader.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration, populated once at startup and passed
// down explicitly; components never read ambient configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Blacklist BlacklistConfig `mapstructure:"blacklist"`
	Keys      KeysConfig      `mapstructure:"keys"`
	Token     TokenConfig     `mapstructure:"token"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// IdentityConfig lists the statically configured accounts served by the
// built-in identity provider. Deployments with a real identity backend
// leave this empty and wire their own provider.
type IdentityConfig struct {
	Users []UserEntry `mapstructure:"users"`
}

// UserEntry is one configured account. PasswordSHA256 holds the hex
// digest of the password.
type UserEntry struct {
	ID             string   `mapstructure:"id"`
	Username       string   `mapstructure:"username"`
	PasswordSHA256 string   `mapstructure:"password_sha256"`
	Name           string   `mapstructure:"name"`
	Roles          []string `mapstructure:"roles"`
	Active         bool     `mapstructure:"active"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PprofEnabled bool          `mapstructure:"pprof_enabled"`
}

type StorageConfig struct {
	// Driver selects the token store: "postgres" or "memory".
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type BlacklistConfig struct {
	// Backend selects the denylist store: "redis" or "memory".
	Backend string `mapstructure:"backend"`
}

type KeysConfig struct {
	// Source selects the signing key origin: "generate", "file" or
	// "vault".
	Source         string `mapstructure:"source"`
	PrivateKeyFile string `mapstructure:"private_key_file"`
	VaultAddress   string `mapstructure:"vault_address"`
	VaultToken     string `mapstructure:"vault_token"`
	VaultMount     string `mapstructure:"vault_mount"`
	VaultSecret    string `mapstructure:"vault_secret"`
}

type TokenConfig struct {
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	StandardTTL     time.Duration `mapstructure:"standard_ttl"`
	PersistentTTL   time.Duration `mapstructure:"persistent_ttl"`
	GracePeriod     time.Duration `mapstructure:"grace_period"`
	MaxActiveTokens int           `mapstructure:"max_active_tokens"`
	RetentionWindow time.Duration `mapstructure:"retention_window"`
}

type AuditConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type SweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Validate checks the cross-field constraints that would otherwise fail
// late at runtime.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("storage.driver must be postgres or memory, got %q", c.Storage.Driver)
	}
	switch c.Blacklist.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("blacklist.backend must be redis or memory, got %q", c.Blacklist.Backend)
	}
	switch c.Keys.Source {
	case "generate", "file", "vault":
	default:
		return fmt.Errorf("keys.source must be generate, file or vault, got %q", c.Keys.Source)
	}
	if c.Keys.Source == "file" && c.Keys.PrivateKeyFile == "" {
		return fmt.Errorf("keys.private_key_file is required when keys.source is file")
	}
	if c.Token.GracePeriod >= c.Token.StandardTTL {
		return fmt.Errorf("token.grace_period must be shorter than token.standard_ttl")
	}
	if c.Token.MaxActiveTokens < 1 {
		return fmt.Errorf("token.max_active_tokens must be at least 1")
	}
	return nil
}

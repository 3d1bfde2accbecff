package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/authgate/pkg/constants"
)

// Load reads configuration from file ("config.yaml" in the working
// directory or /etc/authgate/) and AUTHGATE_-prefixed environment
// variables, with environment taking precedence.
func Load() (*Config, *viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.ssl_mode", "disable")
	v.SetDefault("blacklist.backend", "memory")
	v.SetDefault("keys.source", "generate")
	v.SetDefault("keys.vault_mount", "secret")
	v.SetDefault("token.issuer", constants.ServiceName)
	v.SetDefault("token.audience", "api")
	v.SetDefault("token.access_token_ttl", constants.DefaultAccessTokenTTL)
	v.SetDefault("token.standard_ttl", constants.DefaultRefreshTokenTTL)
	v.SetDefault("token.persistent_ttl", constants.DefaultPersistentTokenTTL)
	v.SetDefault("token.grace_period", constants.DefaultRefreshGracePeriod)
	v.SetDefault("token.max_active_tokens", constants.DefaultMaxActiveTokens)
	v.SetDefault("token.retention_window", constants.DefaultRetentionWindow)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.topic", "authgate.audit")
	v.SetDefault("audit.batch_timeout", "100ms")
	v.SetDefault("audit.write_timeout", "5s")
	v.SetDefault("sweeper.interval", constants.DefaultSweepInterval)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sampling_rate", 0.1)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/authgate/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, err
		}
	}

	v.SetEnvPrefix("AUTHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, v, nil
}

// WatchLogLevel re-parses log.level when the config file changes on disk
// and forwards it to the given setter. Only the log level is reloadable;
// token policy and storage settings require a restart.
func WatchLogLevel(v *viper.Viper, setLevel func(string)) {
	v.OnConfigChange(func(fsnotify.Event) {
		setLevel(v.GetString("log.level"))
	})
	v.WatchConfig()
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config carries every protocol constant that has drifted across
// service revisions, so a deployment can track the live values without
// a rebuild.
type Config struct {
	BaseURL   string `mapstructure:"base_url"`
	SocketURL string `mapstructure:"socket_url"`

	AuthTokenLength int           `mapstructure:"auth_token_length"`
	CSRFTokenLength int           `mapstructure:"csrf_token_length"`
	KeepAliveGrace  time.Duration `mapstructure:"keepalive_grace"`

	ChatLimit    int           `mapstructure:"chat_limit"`
	ChatThrottle time.Duration `mapstructure:"chat_throttle"`

	ChatCacheSize int           `mapstructure:"chat_cache_size"`
	UserCacheTTL  time.Duration `mapstructure:"user_cache_ttl"`
	SweepPeriod   time.Duration `mapstructure:"sweep_period"`

	GatewayConcurrency int           `mapstructure:"gateway_concurrency"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`

	DebugAddr string `mapstructure:"debug_addr"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults
// for anything absent. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("base_url", "https://plug.dj")
	v.SetDefault("socket_url", "wss://shalamar.plug.dj/socket")
	v.SetDefault("auth_token_length", 128)
	v.SetDefault("csrf_token_length", 60)
	v.SetDefault("keepalive_grace", "60s")
	v.SetDefault("chat_limit", 256)
	v.SetDefault("chat_throttle", "600ms")
	v.SetDefault("chat_cache_size", 256)
	v.SetDefault("user_cache_ttl", "5m")
	v.SetDefault("sweep_period", "5m")
	v.SetDefault("gateway_concurrency", 5)
	v.SetDefault("retry_backoff", "5s")
	v.SetDefault("reconnect_delay", "5s")
	v.SetDefault("debug_addr", "")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

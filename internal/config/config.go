package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port           int      `mapstructure:"port"`
	DatabasePath   string   `mapstructure:"database_path"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	KubeconfigPath string   `mapstructure:"kubeconfig_path"`

	JWTSecret string `mapstructure:"jwt_secret"`

	RequestTimeoutSec  int     `mapstructure:"request_timeout_sec"`    // HTTP read/write; 0 = server default
	ShutdownTimeoutSec int     `mapstructure:"shutdown_timeout_sec"`   // Graceful shutdown wait
	K8sTimeoutSec      int     `mapstructure:"k8s_timeout_sec"`        // Outbound K8s API call timeout
	K8sRateLimitPerSec float64 `mapstructure:"k8s_rate_limit_per_sec"` // Token bucket rate (req/s); 0 = no limit
	K8sRateLimitBurst  int     `mapstructure:"k8s_rate_limit_burst"`

	CacheTTLSec       int `mapstructure:"cache_ttl_sec"`        // Workload list cache TTL; 0 = cache disabled
	CacheSize         int `mapstructure:"cache_size"`           // LRU entries
	ApplyMaxBodyBytes int `mapstructure:"apply_max_body_bytes"` // Max config PUT body; 0 = default 512KB
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/kubedeck/")
	viper.AddConfigPath("$HOME/.kubedeck")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("port", 8080)
	viper.SetDefault("database_path", "./kubedeck.db")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("allowed_origins", []string{"*"})
	viper.SetDefault("kubeconfig_path", "")
	viper.SetDefault("jwt_secret", "")
	viper.SetDefault("request_timeout_sec", 30)
	viper.SetDefault("shutdown_timeout_sec", 15)
	viper.SetDefault("k8s_timeout_sec", 30)
	viper.SetDefault("k8s_rate_limit_per_sec", 0) // 0 = disabled
	viper.SetDefault("k8s_rate_limit_burst", 0)
	viper.SetDefault("cache_ttl_sec", 30)
	viper.SetDefault("cache_size", 256)
	viper.SetDefault("apply_max_body_bytes", 512*1024)

	// Environment variables
	viper.SetEnvPrefix("KUBEDECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

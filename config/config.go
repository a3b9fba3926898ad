package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.pilab.hu/hospital/storage"
)

const (
	AppName        = "hospital"
	ConfigFileName = "hospital"
	ConfigFileType = "yaml"
	EnvPrefix      = "HOSPITAL"
)

var ErrUnknownStorageBackend = errors.New("unknown storage backend")

// Config holds all configuration for the dashboard client.
type Config struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	HTTPAddr       string        `mapstructure:"http_addr"`
	LogLevel       string        `mapstructure:"log_level"`
	LogPretty      bool          `mapstructure:"log_pretty"`

	StorageBackend storage.Backend `mapstructure:"storage_backend"`
	BoltPath       string          `mapstructure:"bolt_path"`
	RedisAddr      string          `mapstructure:"redis_addr"`
	RedisDB        int             `mapstructure:"redis_db"`
	RedisPrefix    string          `mapstructure:"redis_prefix"`
	MongoURI       string          `mapstructure:"mongo_uri"`
	MongoDBName    string          `mapstructure:"mongo_db_name"`

	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
	OtelServiceName string `mapstructure:"otel_service_name"`
	// TraceStdout exports spans to stderr. Spans are always created so logs carry trace ids.
	TraceStdout bool `mapstructure:"trace_stdout"`

	// AuditLog is a file that receives one JSON line per sign-in, sign-out and restore.
	AuditLog string `mapstructure:"audit_log"`

	// AnalyticsCacheTTL is how long aggregate responses are reused. Zero disables the cache.
	AnalyticsCacheTTL time.Duration `mapstructure:"analytics_cache_ttl"`
}

// DefaultDir is the per-user directory holding the config and the bolt database.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}

	return filepath.Join(home, "."+AppName)
}

// LoadConfig reads configuration from cfgFile (or the standard search paths when empty),
// HOSPITAL_* environment variables, and defaults.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileType)
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath("/etc/" + AppName + "/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_base_url", "http://127.0.0.1:8000/api")
	v.SetDefault("request_timeout", "30s")
	v.SetDefault("http_addr", "127.0.0.1:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)
	v.SetDefault("storage_backend", string(storage.BackendBolt))
	v.SetDefault("bolt_path", filepath.Join(DefaultDir(), "storage.db"))
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", AppName)
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db_name", "hospital_dashboard")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("otel_service_name", "hospital-dashboard")
	v.SetDefault("trace_stdout", false)
	v.SetDefault("audit_log", "")
	v.SetDefault("analytics_cache_ttl", "0s")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine: defaults and env vars apply. An explicit --config path must exist.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	cfg.StorageBackend = storage.Backend(strings.ToLower(v.GetString("storage_backend")))
	if !cfg.StorageBackend.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorageBackend, cfg.StorageBackend)
	}

	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return &cfg, nil
}

// Package config loads the gateway configuration.
//
// Order of precedence (highest to lowest): flags > env > config file > defaults.
// Environment variables use the IRON_INDEX_ prefix with dots replaced by
// underscores, e.g. IRON_INDEX_BUCKET_NAME or IRON_INDEX_SERVER_PORT.
//
// TOML example (iron-index.toml):
//
//	[server]
//	address = "0.0.0.0"
//	port = 8000
//
//	[bucket]
//	name = "public-files"
//	endpoint = "http://localhost:9000"
//	region = "us-east-1"
//	access_key_id = "minioadmin"
//	secret_access_key = "minioadmin"
//	path_style = true
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "IRON_INDEX"

// DefaultConfigName is looked up in the working directory when no file is given.
const DefaultConfigName = "iron-index"

// Config is the root configuration struct.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Bucket  BucketConfig  `mapstructure:"bucket"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`
}

// ListenAddr returns the host:port the HTTP server binds to.
func (s ServerConfig) ListenAddr() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}

// BucketConfig describes the bucket being served and how to reach it.
type BucketConfig struct {
	Name            string `mapstructure:"name" validate:"required"`
	Endpoint        string `mapstructure:"endpoint" validate:"required"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
	ListPageSize    int    `mapstructure:"list_page_size" validate:"min=1,max=1000"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

// MetricsConfig holds the ops listener configuration. An empty Address
// disables /metrics and /healthz.
type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"address":   "server.address",
	"port":      "server.port",
	"log-level": "log.level",
}

// bindFlags binds explicitly set CLI flags to viper keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults registers every key so that AutomaticEnv can fill it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8000)

	v.SetDefault("bucket.name", "")
	v.SetDefault("bucket.endpoint", "")
	v.SetDefault("bucket.region", "us-east-1")
	v.SetDefault("bucket.access_key_id", "")
	v.SetDefault("bucket.secret_access_key", "")
	v.SetDefault("bucket.path_style", false)
	v.SetDefault("bucket.list_page_size", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.address", "")
}

// Load reads configuration and returns a validated Config.
//
// configFile may be empty, in which case ./iron-index.{toml,yaml,yml,json}
// is used when present. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the bucket endpoint.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, _, err := cfg.Bucket.ParseEndpoint(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ParseEndpoint splits Endpoint into the host:port the S3 client dials and
// whether TLS is used. An explicit http:// or https:// scheme decides TLS;
// a bare host falls back to shouldUseSSL.
func (b BucketConfig) ParseEndpoint() (host string, secure bool, err error) {
	if !strings.Contains(b.Endpoint, "://") {
		host = strings.TrimSuffix(b.Endpoint, "/")
		if host == "" {
			return "", false, errors.New("bucket endpoint is empty")
		}
		return host, shouldUseSSL(host), nil
	}

	u, err := url.Parse(b.Endpoint)
	if err != nil {
		return "", false, fmt.Errorf("bucket endpoint %q: %w", b.Endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("bucket endpoint %q has no host", b.Endpoint)
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("bucket endpoint %q must not contain a path", b.Endpoint)
	}

	switch strings.ToLower(u.Scheme) {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("bucket endpoint %q: unsupported scheme %q", b.Endpoint, u.Scheme)
	}
}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, ...) without dots
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(strings.Split(endpoint, ":")[0], ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}

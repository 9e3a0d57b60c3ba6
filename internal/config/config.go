// Package config loads releasetower settings from a YAML file, the
// environment (RELEASETOWER_*) and built-in defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/matzehuels/releasetower/internal/tracing"
	"github.com/matzehuels/releasetower/pkg/cache"
	"github.com/matzehuels/releasetower/pkg/datasource"
	"github.com/matzehuels/releasetower/pkg/integrations"
)

const (
	appName   = "releasetower"
	envPrefix = "RELEASETOWER"
	localFile = ".releasetower.yaml"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

var backends = []string{BackendFile, BackendMemory, BackendRedis, BackendMongo, BackendNone}

// Config is the complete runtime configuration.
type Config struct {
	Cache     CacheConfig             `mapstructure:"cache"`
	HTTP      HTTPConfig              `mapstructure:"http"`
	HostRules []integrations.HostRule `mapstructure:"host_rules"`
	Server    ServerConfig            `mapstructure:"server"`
	Tracing   tracing.Config          `mapstructure:"tracing"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	Backend         string         `mapstructure:"backend"`
	Dir             string         `mapstructure:"dir"`
	RedisURL        string         `mapstructure:"redis_url"`
	MongoURI        string         `mapstructure:"mongo_uri"`
	MongoDatabase   string         `mapstructure:"mongo_database"`
	KeyPrefix       string         `mapstructure:"key_prefix"`
	TTLMinutes      int            `mapstructure:"ttl_minutes"`
	TTLOverride     map[string]int `mapstructure:"ttl_override"`
	PrivatePackages bool           `mapstructure:"private_packages"`
}

// HTTPConfig tunes the registry HTTP client.
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
}

// ServerConfig configures "releasetower serve".
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Cache: CacheConfig{
			Backend:       BackendFile,
			Dir:           DefaultCacheDir(),
			MongoDatabase: appName,
			TTLMinutes:    int(datasource.DefaultCacheTTL / time.Minute),
		},
		HTTP: HTTPConfig{
			Timeout: 10 * time.Second,
			Retries: 3,
		},
		Server:  ServerConfig{Addr: ":8080"},
		Tracing: tracing.Config{Exporter: "none", ServiceName: appName},
	}
}

// Load reads the configuration. An explicit path must exist; otherwise
// ./.releasetower.yaml and then ~/.config/releasetower/config.yaml are
// tried, and a missing file is not an error.
func Load(path string) (Config, string, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case path != "":
		v.SetConfigFile(path)
	case fileExists(localFile):
		v.SetConfigFile(localFile)
	default:
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.mongo_uri", d.Cache.MongoURI)
	v.SetDefault("cache.mongo_database", d.Cache.MongoDatabase)
	v.SetDefault("cache.key_prefix", d.Cache.KeyPrefix)
	v.SetDefault("cache.ttl_minutes", d.Cache.TTLMinutes)
	v.SetDefault("cache.private_packages", d.Cache.PrivatePackages)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.retries", d.HTTP.Retries)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if !slices.Contains(backends, c.Cache.Backend) {
		return fmt.Errorf("invalid cache.backend %q (expected one of %s)", c.Cache.Backend, strings.Join(backends, ", "))
	}
	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be positive, got %d", c.Cache.TTLMinutes)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errors.New("cache.redis_url is required for the redis backend")
	}
	if c.Cache.Backend == BackendMongo && c.Cache.MongoURI == "" {
		return errors.New("cache.mongo_uri is required for the mongo backend")
	}
	if e := c.Tracing.Exporter; e != "" && e != "none" && e != "stdout" {
		return fmt.Errorf("invalid tracing.exporter %q (expected none or stdout)", e)
	}
	return nil
}

// Engine returns the release engine settings.
func (c Config) Engine() datasource.Config {
	return datasource.Config{
		CachePrivatePackages: c.Cache.PrivatePackages,
		DefaultCacheTTL:      time.Duration(c.Cache.TTLMinutes) * time.Minute,
		CacheTTLOverride:     c.Cache.TTLOverride,
	}
}

// Integrations returns the registry client options. backend caches raw
// registry responses; nil disables response caching.
func (c Config) Integrations(backend cache.Cache) integrations.Options {
	return integrations.Options{
		Cache:   backend,
		Keyer:   c.Cache.Keyer(),
		TTL:     time.Duration(c.Cache.TTLMinutes) * time.Minute,
		Hosts:   integrations.NewHostRules(c.HostRules...),
		Timeout: c.HTTP.Timeout,
		Retries: c.HTTP.Retries,
	}
}

// Keyer returns the cache key builder. A non-empty key_prefix scopes every
// key so several deployments can share one Redis or MongoDB backend.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.KeyPrefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.KeyPrefix)
}

// OpenCache opens the configured backend. The caller closes it.
func (c CacheConfig) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Backend {
	case BackendFile:
		return cache.NewFileCache(c.Dir)
	case BackendMemory:
		return cache.NewMemoryCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.RedisURL)
	case BackendMongo:
		return cache.NewMongoCache(ctx, c.MongoURI, c.MongoDatabase)
	case BackendNone:
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// DefaultCacheDir returns $XDG_CACHE_HOME/releasetower or ~/.cache/releasetower.
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

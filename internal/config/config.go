// Package config holds the phishguard client configuration. Values come from
// defaults, an optional YAML file, an optional .env file, PHISHGUARD_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "PHISHGUARD"

// Config is the complete client configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// APIConfig describes the remote scanning service.
type APIConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Region   string        `mapstructure:"region"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AuthConfig describes where bearer credentials come from.
type AuthConfig struct {
	Provider    string      `mapstructure:"provider"` // static, file, redis
	UserPoolID  string      `mapstructure:"user_pool_id"`
	ClientID    string      `mapstructure:"client_id"`
	Token       string      `mapstructure:"token"`
	TokenUse    string      `mapstructure:"token_use"` // id, access
	SessionFile string      `mapstructure:"session_file"`
	Redis       RedisConfig `mapstructure:"redis"`
}

// RedisConfig locates a shared session store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// AnalysisConfig selects the submission strategy and endpoint paths.
type AnalysisConfig struct {
	Mode      string `mapstructure:"mode"` // per-item, batched
	URLPath   string `mapstructure:"url_path"`
	BatchPath string `mapstructure:"batch_path"`
	EmailPath string `mapstructure:"email_path"`
}

// LogConfig configures logx.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Recognized option values.
const (
	ProviderStatic = "static"
	ProviderFile   = "file"
	ProviderRedis  = "redis"

	TokenUseID     = "id"
	TokenUseAccess = "access"

	ModePerItem = "per-item"
	ModeBatched = "batched"
)

// SetDefaults registers the default value of every known key on v.
// Keys must be registered for AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.endpoint", "")
	v.SetDefault("api.region", "us-east-1")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("auth.provider", ProviderFile)
	v.SetDefault("auth.user_pool_id", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.token_use", TokenUseID)
	v.SetDefault("auth.session_file", defaultSessionFile())
	v.SetDefault("auth.redis.addr", "localhost:6379")
	v.SetDefault("auth.redis.password", "")
	v.SetDefault("auth.redis.db", 0)
	v.SetDefault("auth.redis.key", "phishguard:session:token")

	v.SetDefault("analysis.mode", ModePerItem)
	v.SetDefault("analysis.url_path", "/scan/url")
	v.SetDefault("analysis.batch_path", "/scan/urls")
	v.SetDefault("analysis.email_path", "/scan/email")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")

	v.SetDefault("metrics.textfile", "")
}

// BindEnv makes v read PHISHGUARD_SECTION_KEY variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. A missing default file is not
// an error; a missing explicit file is.
func LoadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}

		return fmt.Errorf("env file %s: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("cannot load env file %s: %w", path, err)
	}

	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Decode unmarshals and normalizes v without validating it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.normalize()

	return &cfg, nil
}

func (c *Config) normalize() {
	c.API.Endpoint = strings.TrimRight(strings.TrimSpace(c.API.Endpoint), "/")
	c.Auth.Provider = strings.ToLower(strings.TrimSpace(c.Auth.Provider))
	c.Auth.TokenUse = strings.ToLower(strings.TrimSpace(c.Auth.TokenUse))
	c.Analysis.Mode = strings.ToLower(strings.TrimSpace(c.Analysis.Mode))
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return errors.New("api.endpoint is required (set PHISHGUARD_API_ENDPOINT or api.endpoint in the config file)")
	}

	u, err := url.Parse(c.API.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.endpoint must be an absolute http(s) URL: %q", c.API.Endpoint)
	}

	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative: %s", c.API.Timeout)
	}

	switch c.Auth.Provider {
	case ProviderStatic, ProviderFile, ProviderRedis:
	default:
		return fmt.Errorf("unknown auth.provider %q (want %s, %s or %s)",
			c.Auth.Provider, ProviderStatic, ProviderFile, ProviderRedis)
	}

	if c.Auth.Provider == ProviderRedis && strings.TrimSpace(c.Auth.Redis.Key) == "" {
		return errors.New("auth.redis.key is required when auth.provider is redis")
	}

	switch c.Auth.TokenUse {
	case TokenUseID, TokenUseAccess:
	default:
		return fmt.Errorf("unknown auth.token_use %q (want %s or %s)", c.Auth.TokenUse, TokenUseID, TokenUseAccess)
	}

	switch c.Analysis.Mode {
	case ModePerItem, ModeBatched:
	default:
		return fmt.Errorf("unknown analysis.mode %q (want %s or %s)", c.Analysis.Mode, ModePerItem, ModeBatched)
	}

	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Auth.Token != "" {
		c.Auth.Token = "****"
	}

	if c.Auth.Redis.Password != "" {
		c.Auth.Redis.Password = "****"
	}

	return c
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".phishguard-session.json"
	}

	return dir + string(os.PathSeparator) + "phishguard" + string(os.PathSeparator) + "session.json"
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env        string           `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Repository RepositoryConfig `yaml:"repository"`
	Session    SessionConfig    `yaml:"session"`
	Media      MediaConfig      `yaml:"media"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Poller     PollerConfig     `yaml:"poller"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

type RepositoryConfig struct {
	Driver string `yaml:"driver" env:"REPOSITORY_DRIVER" env-default:"postgres"`
}

// SessionConfig holds the settings a new session starts with when the
// teacher does not pass any. Unset flags default to true.
type SessionConfig struct {
	AllowSelfUnmute     *bool `yaml:"allow_self_unmute"`
	AutoMuteNewStudents *bool `yaml:"auto_mute_new_students"`
}

func (c SessionConfig) SelfUnmuteAllowed() bool {
	return c.AllowSelfUnmute == nil || *c.AllowSelfUnmute
}

func (c SessionConfig) AutoMute() bool {
	return c.AutoMuteNewStudents == nil || *c.AutoMuteNewStudents
}

type MediaConfig struct {
	Secret string        `yaml:"secret" env:"MEDIA_SECRET"`
	Issuer string        `yaml:"issuer" env-default:"liveclass"`
	TTL    time.Duration `yaml:"ttl" env-default:"2h"`
}

type RealtimeConfig struct {
	QueueSize    int           `yaml:"queue_size" env-default:"16"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type PollerConfig struct {
	BaseURL     string        `yaml:"base_url" env:"POLLER_BASE_URL"`
	Interval    time.Duration `yaml:"interval" env-default:"3s"`
	MaxNotFound int           `yaml:"max_not_found" env-default:"3"`
}

// MustLoad reads the config from path, falling back to CONFIG_PATH and then
// config/local.yaml.
func MustLoad(path string) *Config {
	return MustLoadPath(fetchConfigPath(path))
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load reads the configuration for the server commands, which need a
// repository and a media secret.
func Load(configPath string) (*Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoadClient(path string) *Config {
	cfg, err := LoadClient(fetchConfigPath(path))
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// LoadClient reads the configuration for an attending client. Only the
// poller section is checked.
func LoadClient(configPath string) (*Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}

	if err := cfg.validateClient(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func read(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

func fetchConfigPath(res string) string {
	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}
	if c.Realtime.QueueSize <= 0 {
		c.Realtime.QueueSize = 16
	}
	if c.Poller.Interval <= 0 {
		c.Poller.Interval = 3 * time.Second
	}
	if c.Poller.MaxNotFound <= 0 {
		c.Poller.MaxNotFound = 3
	}
	if c.Poller.BaseURL == "" {
		c.Poller.BaseURL = "http://localhost" + c.HTTP.Address
	}
}

func (c *Config) validate() error {
	switch c.Repository.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database dsn is empty")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown repository driver %q", c.Repository.Driver)
	}
	if c.Media.Secret == "" {
		return errors.New("media secret is empty")
	}
	return nil
}

func (c *Config) validateClient() error {
	u, err := url.Parse(c.Poller.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid poller base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("poller base url must be http or https, got %q", c.Poller.BaseURL)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Port           int      `yaml:"port"`
	StaticDir      string   `yaml:"staticDir"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Addr is the listen address derived from Port.
func (h HTTP) Addr() string { return ":" + strconv.Itoa(h.Port) }

type GRPC struct {
	Addr      string        `yaml:"addr"` // empty disables the health server
	PingEvery time.Duration `yaml:"pingEvery"`
}

type Store struct {
	URI       string        `yaml:"uri"` // postgres://, mongodb://, badger://
	OpTimeout time.Duration `yaml:"opTimeout"`
}

type WS struct {
	PingEvery time.Duration `yaml:"pingEvery"`
}

type Redis struct {
	Addr     string `yaml:"addr"` // empty disables cross-instance fan-out
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // board-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap, empty: std in dev, zap otherwise
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Store   Store   `yaml:"store"`
	WS      WS      `yaml:"ws"`
	Redis   Redis   `yaml:"redis"`
	Logging Logging `yaml:"logging"`
}

// env holds the process environment overrides; unset variables leave the
// file values alone.
type env struct {
	Port       int    `envconfig:"PORT"`
	MongoURI   string `envconfig:"MONGO_URI"`
	StoreURI   string `envconfig:"STORE_URI"`
	StaticDir  string `envconfig:"STATIC_DIR"`
	RedisAddr  string `envconfig:"REDIS_ADDR"`
	GRPCAddr   string `envconfig:"GRPC_ADDR"`
	AppEnv     string `envconfig:"APP_ENV"`
	LogBackend string `envconfig:"LOG_BACKEND"`
	LogDebug   *bool  `envconfig:"LOG_DEBUG"`
}

// LoadConfig reads .env, then the YAML file at CONFIG_PATH (default
// ./config/config.yaml, optional), then environment overrides, and fills
// defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && os.Getenv("CONFIG_PATH") == "":
	default:
		return nil, err
	}

	var e env
	if err := envconfig.Process("", &e); err != nil {
		return nil, err
	}
	cfg.apply(e)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) apply(e env) {
	if e.Port != 0 {
		c.HTTP.Port = e.Port
	}
	// STORE_URI wins over MONGO_URI
	if e.MongoURI != "" {
		c.Store.URI = e.MongoURI
	}
	if e.StoreURI != "" {
		c.Store.URI = e.StoreURI
	}
	if e.StaticDir != "" {
		c.HTTP.StaticDir = e.StaticDir
	}
	if e.RedisAddr != "" {
		c.Redis.Addr = e.RedisAddr
	}
	if e.GRPCAddr != "" {
		c.GRPC.Addr = e.GRPCAddr
	}
	if e.AppEnv != "" {
		c.Logging.Env = e.AppEnv
	}
	if e.LogBackend != "" {
		c.Logging.Backend = e.LogBackend
	}
	if e.LogDebug != nil {
		c.Logging.Debug = *e.LogDebug
	}
}

func (c *Config) validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	c.Logging.Backend = strings.ToLower(strings.TrimSpace(c.Logging.Backend))
	switch c.Logging.Backend {
	case "", "std", "zap":
	default:
		return fmt.Errorf("logging.backend must be std or zap, got %q", c.Logging.Backend)
	}

	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.StaticDir == "" {
		c.HTTP.StaticDir = "./public"
	}
	if c.Store.URI == "" {
		c.Store.URI = "badger://./data"
	}
	if c.Store.OpTimeout <= 0 {
		c.Store.OpTimeout = 5 * time.Second
	}
	if c.WS.PingEvery <= 0 {
		c.WS.PingEvery = 15 * time.Second
	}
	if c.GRPC.PingEvery <= 0 {
		c.GRPC.PingEvery = 10 * time.Second
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "board:events"
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "board-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	return nil
}

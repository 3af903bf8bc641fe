package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Auth modes.
const (
	AuthModeBridge = "bridge"
	AuthModeLocal  = "local"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	SQLite  SQLiteConfig  `yaml:"sqlite"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Auth    AuthConfig    `yaml:"auth"`
	Polling PollingConfig `yaml:"polling"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	SecureCookies   bool          `yaml:"secure_cookies"`
}

type SQLiteConfig struct {
	Path          string `yaml:"path"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type BridgeConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Endpoint paths relative to BaseURL.
	ReadListPath     string `yaml:"read_list_path"`
	ListPath         string `yaml:"list_path"`
	DeviceStatusPath string `yaml:"device_status_path"`
	UpdateStatusPath string `yaml:"update_status_path"`
	CredentialsPath  string `yaml:"credentials_path"`
}

type AuthConfig struct {
	Mode       string        `yaml:"mode"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type PollingConfig struct {
	DeviceStatusInterval time.Duration `yaml:"device_status_interval"`
	CommandRefetchDelay  time.Duration `yaml:"command_refetch_delay"`
	ReloadRefetchDelay   time.Duration `yaml:"reload_refetch_delay"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the settings the plant runs with when nothing overrides them.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: "seedflow.db",
		},
		Bridge: BridgeConfig{
			BaseURL:          "http://10.99.2.17:1881",
			Timeout:          15 * time.Second,
			ReadListPath:     "read-sap",
			ListPath:         "producao/lista",
			DeviceStatusPath: "status-clp",
			UpdateStatusPath: "atualiza-status",
			CredentialsPath:  "usuarios",
		},
		Auth: AuthConfig{
			Mode:       AuthModeBridge,
			SessionTTL: 12 * time.Hour,
		},
		Polling: PollingConfig{
			DeviceStatusInterval: 5 * time.Second,
			CommandRefetchDelay:  500 * time.Millisecond,
			ReloadRefetchDelay:   time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and finally process environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("APP_ADDR", cfg.Server.Addr)
	cfg.Server.SecureCookies = getEnvAsBool("SECURE_COOKIES", cfg.Server.SecureCookies)
	cfg.SQLite.Path = getEnv("SQLITE_PATH", cfg.SQLite.Path)
	cfg.SQLite.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.SQLite.MigrationsDir)
	cfg.Bridge.BaseURL = getEnv("BRIDGE_BASE_URL", cfg.Bridge.BaseURL)
	cfg.Bridge.Timeout = getEnvAsSeconds("BRIDGE_TIMEOUT_SEC", cfg.Bridge.Timeout)
	cfg.Auth.Mode = strings.ToLower(getEnv("AUTH_MODE", cfg.Auth.Mode))
	cfg.Auth.SessionTTL = getEnvAsDuration("SESSION_TTL", cfg.Auth.SessionTTL)
	cfg.Polling.DeviceStatusInterval = getEnvAsDuration("DEVICE_STATUS_INTERVAL", cfg.Polling.DeviceStatusInterval)
	cfg.Polling.CommandRefetchDelay = getEnvAsDuration("COMMAND_REFETCH_DELAY", cfg.Polling.CommandRefetchDelay)
	cfg.Polling.ReloadRefetchDelay = getEnvAsDuration("RELOAD_REFETCH_DELAY", cfg.Polling.ReloadRefetchDelay)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Development = getEnvAsBool("LOG_DEVELOPMENT", cfg.Logging.Development)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	if strings.TrimSpace(c.SQLite.Path) == "" {
		errs = append(errs, errors.New("sqlite path is required"))
	}
	if strings.TrimSpace(c.Bridge.BaseURL) == "" {
		errs = append(errs, errors.New("bridge base url is required"))
	}
	if c.Auth.Mode != AuthModeBridge && c.Auth.Mode != AuthModeLocal {
		errs = append(errs, fmt.Errorf("auth mode %q must be %q or %q", c.Auth.Mode, AuthModeBridge, AuthModeLocal))
	}
	if c.Polling.DeviceStatusInterval <= 0 {
		errs = append(errs, errors.New("device status interval must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsSeconds(key string, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

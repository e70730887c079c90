package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aaquinonez01/whatsapp-service/internal/utils/jid"
)

// MemoryStore keeps the WhatsApp session in memory only.
const MemoryStore = ":memory:"

// Pairing modes.
const (
	PairingModeCode = "code"
	PairingModeQR   = "qr"
)

// ErrMissingPhoneNumber is returned by Validate when no account phone number is configured.
var ErrMissingPhoneNumber = errors.New("WHATSAPP_PHONE_NUMBER is required")

// ErrInvalidPhoneNumber is returned by Validate when the phone number has no digits.
var ErrInvalidPhoneNumber = errors.New("WHATSAPP_PHONE_NUMBER must contain digits")

// Config holds all application configuration.
type Config struct {
	// Logging
	LogLevel string `json:"log_level"`

	// HTTP
	Port            int           `json:"port"`
	ShutdownTimeout time.Duration `json:"-"`
	MetricsEnabled  bool          `json:"metrics_enabled"`

	// WhatsApp account
	PhoneNumber string `json:"phone_number"`
	DeviceName  string `json:"device_name"`
	PairingMode string `json:"pairing_mode"`
	QRImagePath string `json:"qr_image_path"`

	// Storage
	StorePath string `json:"store_path"`

	// Delay before an auth failure falls back to connecting
	AuthRetryDelay time.Duration `json:"-"`

	// Status broadcast
	Redis RedisConfig `json:"redis"`
}

// RedisConfig configures the optional status publisher.
type RedisConfig struct {
	URL     string `json:"url"`
	Channel string `json:"channel"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultStore := filepath.Join(homeDir, ".whatsapp-service", "store")

	return &Config{
		LogLevel:        "INFO",
		Port:            3003,
		ShutdownTimeout: 15 * time.Second,
		DeviceName:      "Chrome (Linux)",
		PairingMode:     PairingModeCode,
		StorePath:       defaultStore,
		AuthRetryDelay:  5 * time.Second,
		Redis: RedisConfig{
			Channel: "whatsapp:status",
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Load reads an optional .env file, an optional JSON config file, and then
// applies environment variable overrides.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if configPath != "" {
		fileCfg, err := LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("WHATSAPP_PHONE_NUMBER"); v != "" {
		cfg.PhoneNumber = v
	}
	if v := os.Getenv("DEVICE_NAME"); v != "" {
		cfg.DeviceName = v
	}
	if v := os.Getenv("PAIRING_MODE"); v != "" {
		cfg.PairingMode = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("QR_IMAGE_PATH"); v != "" {
		cfg.QRImagePath = v
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("AUTH_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid AUTH_RETRY_DELAY %q: %w", v, err)
		}
		cfg.AuthRetryDelay = d
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: %w", v, err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.MetricsEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REDIS_CHANNEL"); v != "" {
		cfg.Redis.Channel = v
	}

	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return ErrMissingPhoneNumber
	}
	if jid.Digits(c.PhoneNumber) == "" {
		return fmt.Errorf("%w: %q", ErrInvalidPhoneNumber, c.PhoneNumber)
	}
	switch c.PairingMode {
	case PairingModeCode, PairingModeQR:
	default:
		return fmt.Errorf("invalid pairing mode %q", c.PairingMode)
	}
	if c.AuthRetryDelay <= 0 {
		return fmt.Errorf("auth retry delay must be positive, got %s", c.AuthRetryDelay)
	}
	return nil
}

// ListenAddr returns the HTTP bind address.
func (c *Config) ListenAddr() string {
	return ":" + strconv.Itoa(c.Port)
}

// InMemoryStore reports whether the session should not touch disk.
func (c *Config) InMemoryStore() bool {
	return c.StorePath == MemoryStore
}

// DatabasePath returns the sqlite DSN path for the session store.
func (c *Config) DatabasePath() string {
	if c.InMemoryStore() {
		return "file::memory:?cache=shared"
	}
	return filepath.Join(c.StorePath, "whatsapp.db")
}

// EnsureStorePath creates the store directory if it doesn't exist.
func (c *Config) EnsureStorePath() error {
	if c.InMemoryStore() {
		return nil
	}
	return os.MkdirAll(c.StorePath, 0755)
}

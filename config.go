package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is immutable for the lifetime of a run; main.go applies flag
// overrides before the engine starts and nothing mutates it afterwards.
type Config struct {
	EventURL string `yaml:"event_url"`

	// Preferred ticket categories, tried in listed order before falling
	// back to any selectable category.
	Categories []string `yaml:"categories"`
	Quantity   int      `yaml:"quantity"`

	Identity IdentityConfig `yaml:"identity"`

	// SessionFile is the persisted authentication state produced by the
	// external login helper. Consumed verbatim, never written.
	SessionFile string `yaml:"session_file"`

	BrowserProfilePath string `yaml:"browser_profile_path"`

	PollIntervalMs int `yaml:"poll_interval_ms"`
	NavTimeoutMs   int `yaml:"nav_timeout_ms"`
	SettleDelayMs  int `yaml:"settle_delay_ms"`

	// Sale timing. When set, the engine stays dormant until shortly before
	// the sale opens instead of polling from launch.
	SaleStartTime          string `yaml:"sale_start_time"`
	StartBeforeSaleMinutes int    `yaml:"start_before_sale_minutes"`

	QueueMarkers []string `yaml:"queue_markers"`

	// PaymentMethod is the preferred sub-method inside the bank-transfer
	// group, matched by visible label before positional fallback.
	PaymentMethod string `yaml:"payment_method"`

	// Digit strings that look like payment references but never are
	// (analytics ids, order-tracking numbers seen on the payment page).
	ExcludedReferences []string `yaml:"excluded_references"`

	Headless            bool `yaml:"headless"`
	KeepOpenMinutes     int  `yaml:"keep_open_minutes"`
	HeadlessHoldSeconds int  `yaml:"headless_hold_seconds"`

	DebugMode bool `yaml:"debug_mode"`
}

type IdentityConfig struct {
	Name       string `yaml:"name"`
	NationalID string `yaml:"national_id"`
	Email      string `yaml:"email"`
	Phone      string `yaml:"phone"`
	Domicile   string `yaml:"domicile"`
	Gender     string `yaml:"gender"`
	BirthDate  string `yaml:"birth_date"`
}

func DefaultConfig() *Config {
	userDataDir := getUserDataDir()

	return &Config{
		EventURL:           "",
		Categories:         []string{},
		Quantity:           1,
		SessionFile:        filepath.Join(userDataDir, "session.json"),
		BrowserProfilePath: filepath.Join(userDataDir, "browser-profile"),

		PollIntervalMs: 100,
		NavTimeoutMs:   30000,
		SettleDelayMs:  500,

		StartBeforeSaleMinutes: 5,

		QueueMarkers: []string{
			"queue",
			"waiting-room",
			"waitingroom",
			"antrian",
			"queue-it",
		},

		PaymentMethod: "BCA",

		ExcludedReferences: []string{},

		Headless:            false,
		KeepOpenMinutes:     5,
		HeadlessHoldSeconds: 30,

		DebugMode: false,
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if config.Quantity < 1 {
		config.Quantity = 1
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields a run cannot start without.
func (c *Config) Validate() error {
	if c.EventURL == "" {
		return fmt.Errorf("no event URL configured")
	}
	if c.Identity.Name == "" || c.Identity.Email == "" {
		return fmt.Errorf("identity name and email are required")
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) NavTimeout() time.Duration {
	if c.NavTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavTimeoutMs) * time.Millisecond
}

func (c *Config) SettleDelay() time.Duration {
	if c.SettleDelayMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

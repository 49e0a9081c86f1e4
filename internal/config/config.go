package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Defaults shared with builds that cannot read the environment (the wasm widget).
const (
	DefaultCounterURL = "https://resume.nattapol.com/api/increase-visitor-counter"
	DefaultElementID  = "visitor-counter-value"
	DefaultPageURL    = "https://resume.nattapol.com"
)

type Config struct {
	// CounterURL maps to COUNTER_URL, the endpoint that increments and returns the count.
	CounterURL string `envconfig:"COUNTER_URL" default:"https://resume.nattapol.com/api/increase-visitor-counter"`

	// ElementID is the id of the page element showing the count.
	ElementID string `envconfig:"ELEMENT_ID" default:"visitor-counter-value"`

	// PageURL is the page the probe loads in a browser.
	PageURL string `envconfig:"PAGE_URL" default:"https://resume.nattapol.com"`

	UserAgent string `envconfig:"USER_AGENT" default:"VisitorCounter/1.0"`

	// RequestTimeout bounds one call to the counter endpoint.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	// SettleWait is how long the probe lets the page update its counter before reading it.
	SettleWait time.Duration `envconfig:"SETTLE_WAIT" default:"5s"`

	// LoadInterval is the minimum gap between two probe page loads.
	LoadInterval time.Duration `envconfig:"LOAD_INTERVAL" default:"2s"`

	// DatabaseURL maps to DB_URL. Empty disables reading storage.
	DatabaseURL string `envconfig:"DB_URL"`

	BatchSize int `envconfig:"BATCH_SIZE" default:"20"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load processes environment variables and populates the Config struct.
func Load() (*Config, error) {
	// Missing .env is normal outside development, vars are injected directly.
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			log.Printf("Warning: .env file found but could not be loaded: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if err := checkHTTPURL("COUNTER_URL", c.CounterURL); err != nil {
		return err
	}
	if err := checkHTTPURL("PAGE_URL", c.PageURL); err != nil {
		return err
	}
	if c.ElementID == "" {
		return fmt.Errorf("ELEMENT_ID must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.SettleWait < 0 {
		return fmt.Errorf("SETTLE_WAIT must not be negative, got %s", c.SettleWait)
	}
	if c.LoadInterval < 0 {
		return fmt.Errorf("LOAD_INTERVAL must not be negative, got %s", c.LoadInterval)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	return nil
}

func checkHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: want an absolute http(s) URL", name, raw)
	}
	return nil
}

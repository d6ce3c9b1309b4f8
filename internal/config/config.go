// Package config handles runtime configuration for the journaling core,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the journaling application.
//
// Fields:
//   - StoreDriver: document store backend ("memory", "sqlite" or "postgres").
//   - DatabaseDSN: DSN for the selected SQL backend, ignored by "memory".
//   - SessionSecret: HMAC secret for signing session JWTs (HS256).
//   - SessionValidity: session token lifetime.
//   - EncryptionSalt: application-wide salt for per-user key derivation.
//     Changing it orphans every existing ciphertext.
//   - AutosaveDebounce: quiet period before an edited form is saved as a draft.
//   - StorePollInterval: refresh cadence for live views on SQL backends.
type Config struct {
	StoreDriver       string
	DatabaseDSN       string
	SessionSecret     string
	SessionValidity   time.Duration
	EncryptionSalt    string
	AutosaveDebounce  time.Duration
	StorePollInterval time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: The secret and salt are insecure and must be overridden in prod.
func (c *Config) LoadDefaults() {
	c.StoreDriver = "sqlite"
	c.DatabaseDSN = "file:journal.db"
	c.SessionSecret = "secretKey"
	c.SessionValidity = 24 * time.Hour
	c.EncryptionSalt = "dev-only-salt"
	c.AutosaveDebounce = 2 * time.Second
	c.StorePollInterval = 1 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/flagx"
	"github.com/ArnarValur/therpy-journal-sub000/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "2s" and integer nanoseconds. After unmarshalling,
// non-empty fields are copied into the runtime Config.
type JsonConfig struct {
	StoreDriver       string         `json:"store_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	SessionSecret     string         `json:"session_secret"`
	SessionValidity   timex.Duration `json:"session_validity"`
	EncryptionSalt    string         `json:"encryption_salt"`
	AutosaveDebounce  timex.Duration `json:"autosave_debounce"`
	StorePollInterval timex.Duration `json:"store_poll_interval"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Absent flags mean no file is
// loaded; an unreadable or malformed file panics. Zero-valued JSON fields
// leave the corresponding Config fields untouched.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.StoreDriver != "" {
		config.StoreDriver = c.StoreDriver
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SessionSecret != "" {
		config.SessionSecret = c.SessionSecret
	}
	if c.SessionValidity.Duration != 0 {
		config.SessionValidity = time.Duration(c.SessionValidity.Duration)
	}
	if c.EncryptionSalt != "" {
		config.EncryptionSalt = c.EncryptionSalt
	}
	if c.AutosaveDebounce.Duration != 0 {
		config.AutosaveDebounce = time.Duration(c.AutosaveDebounce.Duration)
	}
	if c.StorePollInterval.Duration != 0 {
		config.StorePollInterval = time.Duration(c.StorePollInterval.Duration)
	}
}

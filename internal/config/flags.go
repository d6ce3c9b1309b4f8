package config

import (
	"flag"
	"os"
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   store backend ("memory", "sqlite", "postgres")
//	-d string   database DSN for the selected backend
//	-s string   session JWT HMAC secret
//	-t int      session validity, hours
//	-k string   encryption key-derivation salt
//	-w int      autosave debounce, milliseconds
//	-i int      live-view poll interval, milliseconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-d", "-s", "-t", "-k", "-w", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.StoreDriver, "b", config.StoreDriver, "store backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret key")
	fs.StringVar(&config.EncryptionSalt, "k", config.EncryptionSalt, "key-derivation salt")

	sessionValidity := fs.Int("t", int(config.SessionValidity.Hours()), "session validity (in hours)")
	autosaveDebounce := fs.Int("w", int(config.AutosaveDebounce.Milliseconds()), "autosave debounce (in milliseconds)")
	storePollInterval := fs.Int("i", int(config.StorePollInterval.Milliseconds()), "live-view poll interval (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidity = time.Duration(*sessionValidity) * time.Hour
	config.AutosaveDebounce = time.Duration(*autosaveDebounce) * time.Millisecond
	config.StorePollInterval = time.Duration(*storePollInterval) * time.Millisecond
}

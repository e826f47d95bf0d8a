// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON file, a .env file
// and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// PublicDir is the web root holding uploads/ and the placeholder image.
	PublicDir string `json:"public_dir"`

	// LogLevel is a zap level name.
	LogLevel string `json:"log_level"`

	// LogFile enables a rotated log file in addition to stdout.
	LogFile string `json:"log_file"`

	// SessionTTL is how long an idle browser session stays valid.
	SessionTTL time.Duration `json:"-"`

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool `json:"cookie_secure"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// Parse loads .env, parses the command-line flags, the optional config file
// and environment variables. Values in the config file override flags, and
// environment variables override both.
func Parse() (*Options, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	return parse(os.Args[1:])
}

func parse(args []string) (*Options, error) {
	options := &Options{}

	fs := flag.NewFlagSet("sneakvault", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.PublicDir, "public", "./public", "public web root")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.LogFile, "log-file", "", "rotated log file (stdout only when empty)")
	fs.DurationVar(&options.SessionTTL, "session-ttl", 24*time.Hour, "session lifetime")
	fs.BoolVar(&options.CookieSecure, "secure-cookie", false, "set the Secure cookie attribute")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS key file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if dir := os.Getenv("PUBLIC_DIR"); dir != "" {
		options.PublicDir = dir
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		options.LogLevel = lvl
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		options.LogFile = file
	}
	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("SESSION_TTL: %w", err)
		}
		options.SessionTTL = d
	}
	if secure := os.Getenv("COOKIE_SECURE"); secure != "" {
		b, err := strconv.ParseBool(secure)
		if err != nil {
			return nil, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		options.CookieSecure = b
	}

	return options, nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

const (
	DefaultPort            = 3318
	DefaultInstanceName    = "quorum"
	DefaultSQLiteURL       = "file:quorum.db"
	DefaultConnectAttempts = 5
)

type Config struct {
	Port              int
	DatabaseURL       string
	DatabaseType      string
	AdminKeySalt      string
	InstanceName      string
	DBConnectAttempts int
}

// ParseFlags reads flags, falls back to environment variables, and reports
// every invalid or missing setting at once.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("quorum", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.InstanceName, "instance", "", "Instance name recorded on new elections and delegations")
	fs.IntVar(&cfg.DBConnectAttempts, "db-attempts", 0, "Database connection attempts before giving up")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var result *multierror.Error

	if cfg.Port == 0 {
		port, err := envInt("PORT", DefaultPort)
		if err != nil {
			result = multierror.Append(result, err)
		}
		cfg.Port = port
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port %d out of range", cfg.Port))
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		result = multierror.Append(result, fmt.Errorf("unsupported database type %q", cfg.DatabaseType))
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "sqlite" {
			cfg.DatabaseURL = DefaultSQLiteURL
		} else {
			result = multierror.Append(result, errors.New("database URL required (use -d or DATABASE_URL env)"))
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		result = multierror.Append(result, errors.New("ADMIN_KEY_SALT required"))
	}

	if cfg.InstanceName == "" {
		cfg.InstanceName = os.Getenv("INSTANCE_NAME")
		if cfg.InstanceName == "" {
			cfg.InstanceName = DefaultInstanceName
		}
	}

	if cfg.DBConnectAttempts == 0 {
		attempts, err := envInt("DB_CONNECT_ATTEMPTS", DefaultConnectAttempts)
		if err != nil {
			result = multierror.Append(result, err)
		}
		cfg.DBConnectAttempts = attempts
	}
	if cfg.DBConnectAttempts < 1 {
		result = multierror.Append(result, fmt.Errorf("database connect attempts must be positive, got %d", cfg.DBConnectAttempts))
	}

	if err := result.ErrorOrNil(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return v, nil
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DATABASE_URL", "DATABASE_TYPE", "ADMIN_KEY_SALT", "INSTANCE_NAME", "DB_CONNECT_ATTEMPTS"} {
		t.Setenv(k, "")
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "postgres")
	t.Setenv("ADMIN_KEY_SALT", "test-salt")
	t.Setenv("INSTANCE_NAME", "eu-1")
	t.Setenv("DB_CONNECT_ATTEMPTS", "3")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" || cfg.DatabaseURL != "postgres://test" {
		t.Errorf("unexpected database config: %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.InstanceName != "eu-1" {
		t.Errorf("expected instance eu-1, got %s", cfg.InstanceName)
	}
	if cfg.DBConnectAttempts != 3 {
		t.Errorf("expected 3 connect attempts, got %d", cfg.DBConnectAttempts)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := ParseFlags([]string{"-admin-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("expected default port, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" || cfg.DatabaseURL != DefaultSQLiteURL {
		t.Errorf("expected sqlite defaults, got %s %s", cfg.DatabaseType, cfg.DatabaseURL)
	}
	if cfg.InstanceName != DefaultInstanceName {
		t.Errorf("expected default instance name, got %s", cfg.InstanceName)
	}
	if cfg.DBConnectAttempts != DefaultConnectAttempts {
		t.Errorf("expected default connect attempts, got %d", cfg.DBConnectAttempts)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-admin-salt", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
}

func TestParseFlags_ReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")

	_, err := ParseFlags([]string{"-t", "postgres"})
	if err == nil {
		t.Fatal("expected an error")
	}

	merr, ok := err.(*multierror.Error)
	if !ok {
		t.Fatalf("expected *multierror.Error, got %T", err)
	}
	// invalid PORT, missing URL for postgres, missing salt
	if len(merr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(merr.Errors), merr)
	}
	if !strings.Contains(err.Error(), "ADMIN_KEY_SALT") {
		t.Errorf("error should mention ADMIN_KEY_SALT: %v", err)
	}
}

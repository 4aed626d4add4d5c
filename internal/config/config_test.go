package config

import (
	"os"
	"path/filepath"
	"testing"

	"cloudkeeper/internal/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Server.Address != ":5002" {
		t.Errorf("default address = %q", cfg.Server.Address)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Address != Default().Server.Address {
		t.Errorf("expected defaults, got %+v", cfg.Server)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Data.CSVPath = "/srv/prices.csv"
	cfg.Query.DefaultLimit = "50"
	cfg.Mail.Password = "secret"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Data.CSVPath != "/srv/prices.csv" || loaded.Query.DefaultLimit != "50" {
		t.Errorf("values not round-tripped: %+v", loaded)
	}
	if loaded.Mail.Password != "" {
		t.Error("mail password must not be written to disk")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CLOUDKEEPER_CSV_PATH": "/data/prices.csv",
		"CLOUDKEEPER_ADDR":     ":9000",
		"DATABASE_URL":         "postgres://localhost/ck",
		"EMAIL_USER":           "support@cloudkeeper.com",
		"PASSWORD":             "app-password",
		"SMTP_PORT":            "2525",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatal(err)
	}

	if cfg.Data.CSVPath != "/data/prices.csv" {
		t.Errorf("csv path = %s", cfg.Data.CSVPath)
	}
	if cfg.Server.Address != ":9000" {
		t.Errorf("address = %s", cfg.Server.Address)
	}
	if cfg.Accounts.Backend != BackendPostgres || cfg.Accounts.DSN == "" {
		t.Errorf("DATABASE_URL should select postgres: %+v", cfg.Accounts)
	}
	if cfg.Mail.Username != "support@cloudkeeper.com" || cfg.Mail.Password != "app-password" || cfg.Mail.Port != 2525 {
		t.Errorf("mail settings not applied: %+v", cfg.Mail)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should validate: %v", err)
	}

	env["SMTP_PORT"] = "abc"
	if err := Default().applyEnv(lookup); !errors.IsType(err, errors.TypeConfig) {
		t.Errorf("expected config error for bad port, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = " " }},
		{"unknown backend", func(c *Config) { c.Accounts.Backend = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Accounts.Backend = BackendPostgres }},
		{"empty domain", func(c *Config) { c.Accounts.AllowedDomain = "" }},
		{"zero password length", func(c *Config) { c.Accounts.MinPasswordLength = 0 }},
		{"bad mail port", func(c *Config) { c.Mail.Port = 70000 }},
		{"empty cookie", func(c *Config) { c.Session.CookieName = "" }},
		{"zero ttl", func(c *Config) { c.Session.TTLSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.IsType(err, errors.TypeConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CLOUDKEEPER_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CLOUDKEEPER_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("CLOUDKEEPER_TEST_DOTENV"); got != "loaded" {
		t.Errorf("expected variable from .env, got %q", got)
	}
}
